package mailing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/outreach-engine/internal/pkg/logger"
)

// SimulatedSender stands in for the provider during test-mode ticks. It
// succeeds instantly and returns a synthetic message id, so ledger writes,
// step advancement, and cap accounting behave exactly as in a real run
// without provider volume being consumed.
type SimulatedSender struct{}

func (SimulatedSender) Send(_ context.Context, msg *EmailMessage) (*SendResult, error) {
	now := time.Now().UTC()
	id := fmt.Sprintf("msg_%d_%s", now.UnixNano(), msg.ContactID)
	log.Printf("[Simulated] step %d to %s (id: %s)", msg.StepNumber, logger.RedactEmail(msg.To), id)
	return &SendResult{MessageID: id, SentAt: now, Simulated: true}, nil
}
