package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/domain"
)

type fakeLedger struct {
	sent map[string]bool
	err  error
}

func (f *fakeLedger) SentExists(_ context.Context, campaignID, contactID string, step int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.sent[fmt.Sprintf("%s/%s/%d", campaignID, contactID, step)], nil
}

func newEvaluator(ledger *fakeLedger) *Evaluator {
	return &Evaluator{Calc: &Calculator{}, Ledger: ledger}
}

func TestEvaluateDue(t *testing.T) {
	ev := newEvaluator(&fakeLedger{sent: map[string]bool{}})
	campaign := testCampaign(0, 3)
	contact := testContact()
	contact.Location = "London"

	// Wednesday 10:30 in London, due time an hour earlier.
	now := time.Date(2025, 6, 25, 9, 30, 0, 0, time.UTC)
	dueAt := now.Add(-time.Hour)
	contact.NextDueAt = &dueAt

	d, err := ev.Evaluate(context.Background(), contact, campaign, now)
	require.NoError(t, err)
	require.True(t, d.Due)
	require.Equal(t, domain.ReasonDue, d.Reason)
	require.Equal(t, 1, d.StepNumber)
}

func TestEvaluateLedgerOutranksStepCounter(t *testing.T) {
	// Crash scenario: step 1 was committed to the ledger but the process
	// died before current_step advanced. The stale counter says step 1 is
	// next; the ledger must win and block the duplicate.
	ledger := &fakeLedger{sent: map[string]bool{"camp-1/contact-1/1": true}}
	ev := newEvaluator(ledger)
	campaign := testCampaign(0, 3)
	contact := testContact()
	contact.Location = "London"

	now := time.Date(2025, 6, 25, 9, 30, 0, 0, time.UTC)
	dueAt := now.Add(-time.Hour)
	contact.NextDueAt = &dueAt

	d, err := ev.Evaluate(context.Background(), contact, campaign, now)
	require.NoError(t, err)
	require.False(t, d.Due)
	require.Equal(t, domain.ReasonAlreadySentThisStep, d.Reason)
}

func TestEvaluateSequenceComplete(t *testing.T) {
	ev := newEvaluator(&fakeLedger{})
	campaign := testCampaign(0, 3)
	contact := testContact()
	contact.CurrentStep = 2

	d, err := ev.Evaluate(context.Background(), contact, campaign, time.Now())
	require.NoError(t, err)
	require.False(t, d.Due)
	require.Equal(t, domain.ReasonSequenceComplete, d.Reason)
}

func TestEvaluateTerminalStatus(t *testing.T) {
	ev := newEvaluator(&fakeLedger{})
	campaign := testCampaign(0, 3)

	for _, status := range []domain.EmailStatus{
		domain.EmailUnsubscribed, domain.EmailReplied, domain.EmailBounced, domain.EmailCompleted,
	} {
		contact := testContact()
		contact.EmailStatus = status
		d, err := ev.Evaluate(context.Background(), contact, campaign, time.Now())
		require.NoError(t, err)
		require.False(t, d.Due, "status %s", status)
		require.Equal(t, domain.ReasonSequenceComplete, d.Reason)
	}
}

func TestEvaluateNotYetTime(t *testing.T) {
	ev := newEvaluator(&fakeLedger{sent: map[string]bool{}})
	campaign := testCampaign(0, 3)
	contact := testContact()

	now := time.Date(2025, 6, 25, 9, 30, 0, 0, time.UTC)
	dueAt := now.Add(48 * time.Hour)
	contact.NextDueAt = &dueAt

	d, err := ev.Evaluate(context.Background(), contact, campaign, now)
	require.NoError(t, err)
	require.False(t, d.Due)
	require.Equal(t, domain.ReasonNotYetTime, d.Reason)
}

func TestEvaluateOutsideBusinessHours(t *testing.T) {
	ev := newEvaluator(&fakeLedger{sent: map[string]bool{}})
	campaign := testCampaign(0, 3)
	contact := testContact()
	contact.Location = "London"

	// Wednesday 20:30 in London; the send was due at noon.
	now := time.Date(2025, 6, 25, 19, 30, 0, 0, time.UTC)
	dueAt := now.Add(-8 * time.Hour)
	contact.NextDueAt = &dueAt

	d, err := ev.Evaluate(context.Background(), contact, campaign, now)
	require.NoError(t, err)
	require.False(t, d.Due)
	require.Equal(t, domain.ReasonOutsideBusinessHours, d.Reason)
}

func TestEvaluateComputesMissingSchedule(t *testing.T) {
	// A contact with no cached next_due_at gets one computed; the caller is
	// expected to persist it.
	ev := newEvaluator(&fakeLedger{sent: map[string]bool{}})
	campaign := testCampaign(2, 3)
	contact := testContact()
	now := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)

	d, err := ev.Evaluate(context.Background(), contact, campaign, now)
	require.NoError(t, err)
	require.NotNil(t, d.NextDueAt)
	require.False(t, d.Due)
	require.Equal(t, domain.ReasonNotYetTime, d.Reason)
}

func TestEvaluateLedgerError(t *testing.T) {
	ev := newEvaluator(&fakeLedger{err: errors.New("connection refused")})
	campaign := testCampaign(0)
	contact := testContact()

	_, err := ev.Evaluate(context.Background(), contact, campaign, time.Now())
	require.Error(t, err)
}
