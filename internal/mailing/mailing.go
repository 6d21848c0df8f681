// Package mailing holds the delivery collaborators: template
// personalization, the SES delivery client, the simulated sender used by
// test-mode ticks, and sender health lookup.
package mailing

import (
	"context"
	"time"
)

// EmailMessage is one fully rendered outbound email.
type EmailMessage struct {
	To         string
	FromEmail  string
	FromName   string
	Subject    string
	HTMLBody   string
	TextBody   string
	CampaignID string
	ContactID  string
	StepNumber int
}

// SendResult reports a completed delivery attempt.
type SendResult struct {
	MessageID string
	SentAt    time.Time
	Simulated bool
}

// EmailSender delivers one message. Implementations must honor ctx
// cancellation; the engine wraps every call in a send timeout.
type EmailSender interface {
	Send(ctx context.Context, msg *EmailMessage) (*SendResult, error)
}
