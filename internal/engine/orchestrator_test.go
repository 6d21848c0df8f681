package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/mailing"
	"github.com/ignite/outreach-engine/internal/store/memory"
)

// Wednesday 2025-06-25 09:30 UTC: 10:30 in London, inside business hours.
var tickNow = time.Date(2025, 6, 25, 9, 30, 0, 0, time.UTC)

type fakeSender struct {
	mu      sync.Mutex
	sent    []mailing.EmailMessage
	failFor map[string]error
}

func (f *fakeSender) Send(_ context.Context, msg *mailing.EmailMessage) (*mailing.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[msg.ContactID]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, *msg)
	return &mailing.SendResult{MessageID: "prov-" + msg.ContactID, SentAt: tickNow}, nil
}

type fixture struct {
	store  *memory.Store
	sender *fakeSender
	engine *Engine
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	st := memory.New()
	fs := &fakeSender{failFor: map[string]error{}}

	eng := New(cfg, Options{
		Store:   st.Bundle(),
		Deliver: fs,
		Health:  mailing.StaticHealthProvider{"alice@outreach.io": 90, "bob@outreach.io": 85},
	})
	eng.now = func() time.Time { return tickNow }

	st.AddCampaign(domain.Campaign{
		ID:     "camp-1",
		Name:   "Launch",
		Status: domain.CampaignActive,
		Steps: []domain.SequenceStep{
			{StepNumber: 1, DelayDays: 0, Subject: "Hi {{ first_name }}", Body: "Intro for {{ company }}."},
			{StepNumber: 2, DelayDays: 3, Subject: "Re: Hi {{ first_name }}", Body: "Bumping this."},
		},
	})
	st.AddSender(domain.SenderIdentity{
		ID: "s-alice", CampaignID: "camp-1", Email: "alice@outreach.io",
		IsActive: true, IsSelected: true, DailyLimit: 50,
	})
	return &fixture{store: st, sender: fs, engine: eng}
}

func (f *fixture) addDueContact(id string) {
	due := tickNow.Add(-time.Hour)
	f.store.AddContact(domain.Contact{
		ID: id, CampaignID: "camp-1", Email: id + "@example.com",
		FirstName: "Pat", Company: "Acme", Location: "London",
		EmailStatus: domain.EmailActive,
		NextDueAt:   &due,
		CreatedAt:   tickNow.Add(-72 * time.Hour),
	})
}

func TestRunTickSendsDueContact(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	notYet := tickNow.Add(24 * time.Hour)
	f.store.AddContact(domain.Contact{
		ID: "c-2", CampaignID: "camp-1", Email: "c-2@example.com",
		Location: "London", EmailStatus: domain.EmailActive,
		NextDueAt: &notYet, CreatedAt: tickNow.Add(-72 * time.Hour),
	})

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Campaigns)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonNotYetTime])
	assert.NotEmpty(t, summary.RunID)

	require.Len(t, f.sender.sent, 1)
	msg := f.sender.sent[0]
	assert.Equal(t, "c-1@example.com", msg.To)
	assert.Equal(t, "alice@outreach.io", msg.FromEmail)
	assert.Equal(t, "Hi Pat", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Acme")

	// Ledger committed, step advanced, next step scheduled.
	sent, err := f.store.SentExists(context.Background(), "camp-1", "c-1", 1)
	require.NoError(t, err)
	assert.True(t, sent)

	contact, err := f.store.Contact(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, contact.CurrentStep)
	require.NotNil(t, contact.NextDueAt)
	assert.True(t, contact.NextDueAt.After(tickNow))
}

func TestRunTickTestModeSimulates(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{TestMode: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)

	// Real transport untouched; ledger still carries a committed row with a
	// synthetic id, so deduplication works the same as in production.
	assert.Empty(t, f.sender.sent)
	history, err := f.store.History(context.Background(), "camp-1", "c-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SendSent, history[0].Status)
	assert.True(t, strings.HasPrefix(history[0].ProviderMessageID, "msg_"))

	// A follow-up real tick does not resend the simulated step.
	summary, err = f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
}

func TestRunTickIsolatesFailures(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-bad")
	f.addDueContact("c-good")
	f.sender.failFor["c-bad"] = errors.New("smtp 451")

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Errors)

	// The failed attempt stays retryable and is not counted as sent.
	history, err := f.store.History(context.Background(), "camp-1", "c-bad")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SendFailed, history[0].Status)
	assert.Contains(t, history[0].ErrorMessage, "smtp 451")

	// Next tick retries and succeeds.
	delete(f.sender.failFor, "c-bad")
	summary, err = f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}

func TestRunTickLedgerBlocksStaleCounter(t *testing.T) {
	// Crash scenario: the ledger has step 1 committed but the contact's
	// counter still says 0. The tick must not resend step 1.
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	rec := &domain.SendRecord{CampaignID: "camp-1", ContactID: "c-1", StepNumber: 1, SenderID: "s-alice"}
	require.NoError(t, f.store.ClaimPending(context.Background(), rec))
	require.NoError(t, f.store.MarkSent(context.Background(), "camp-1", "c-1", 1, "s-alice", "prov-old", tickNow.Add(-time.Hour)))

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonAlreadySentThisStep])
	assert.Empty(t, f.sender.sent)
}

func TestRunTickRepairsStaleCounter(t *testing.T) {
	// Crash residue: step 1 committed in the ledger but the advance never
	// ran, so the counter still says 0. The tick must reconcile the counter
	// from the ledger instead of skipping the contact forever.
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	rec := &domain.SendRecord{CampaignID: "camp-1", ContactID: "c-1", StepNumber: 1, SenderID: "s-alice"}
	require.NoError(t, f.store.ClaimPending(context.Background(), rec))
	require.NoError(t, f.store.MarkSent(context.Background(), "camp-1", "c-1", 1, "s-alice", "prov-old", tickNow.Add(-time.Hour)))

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonAlreadySentThisStep])

	contact, err := f.store.Contact(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, contact.CurrentStep)
	require.NotNil(t, contact.NextDueAt)
	assert.True(t, contact.NextDueAt.After(tickNow))

	// Once the repaired schedule comes due, step 2 goes out.
	f.engine.now = func() time.Time { return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) }
	summary, err = f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Sent)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, 2, f.sender.sent[0].StepNumber)
}

func TestRunTickEnforcesCampaignCap(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")
	f.addDueContact("c-2")

	campaign, err := f.store.Campaign(context.Background(), "camp-1")
	require.NoError(t, err)
	campaign.Settings.DailyContactsLimit = 1
	campaign.Settings.DailySequenceLimit = 100
	campaign.Settings.StartHour = domain.DefaultStartHour
	campaign.Settings.EndHour = domain.DefaultEndHour
	f.store.AddCampaign(*campaign)

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonCapReached])
}

func TestRunTickNoEligibleSenders(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	// Health collapses below threshold; the engine fails closed.
	f.engine.health = mailing.StaticHealthProvider{"alice@outreach.io": 10}

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonNoSenderAvailable])

	// The operator override widens the pool and the send goes out.
	summary, err = f.engine.RunTick(context.Background(), domain.TickOptions{ForceUnhealthySenders: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
}

func TestRunTickOutsideBusinessHours(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	// 20:30 in London.
	f.engine.now = func() time.Time { return time.Date(2025, 6, 25, 19, 30, 0, 0, time.UTC) }

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.SkipReasons[domain.ReasonOutsideBusinessHours])
}

func TestRunTickCompletesExhaustedSequence(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})

	// One-step campaign: after the send there is nothing left.
	campaign, err := f.store.Campaign(context.Background(), "camp-1")
	require.NoError(t, err)
	campaign.Steps = campaign.Steps[:1]
	f.store.AddCampaign(*campaign)
	f.addDueContact("c-1")

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Sent)

	contact, err := f.store.Contact(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EmailCompleted, contact.EmailStatus)
	assert.Nil(t, contact.NextDueAt)
}

func TestRunTickSkipsInvalidCampaign(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	f.store.AddCampaign(domain.Campaign{
		ID: "camp-broken", Status: domain.CampaignActive,
		Steps: []domain.SequenceStep{{StepNumber: 5, DelayDays: 1}},
	})

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)
	// The broken campaign is counted as an error; the healthy one still ran.
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.Sent)
}

func TestRunTickCampaignFilter(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	summary, err := f.engine.RunTick(context.Background(), domain.TickOptions{CampaignID: "camp-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Campaigns)
	assert.Equal(t, 1, summary.Sent)

	_, err = f.engine.RunTick(context.Background(), domain.TickOptions{CampaignID: "nope"})
	require.Error(t, err)
}

func TestContactScheduleProjection(t *testing.T) {
	f := newFixture(t, Config{NumWorkers: 1})
	f.addDueContact("c-1")

	// Send step 1, then project.
	_, err := f.engine.RunTick(context.Background(), domain.TickOptions{})
	require.NoError(t, err)

	steps, err := f.engine.ContactSchedule(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].StepNumber)
	assert.Equal(t, string(domain.SendSent), steps[0].Status)
	assert.Equal(t, 2, steps[1].StepNumber)
	assert.Equal(t, "scheduled", steps[1].Status)
	assert.True(t, steps[1].ScheduledAt.After(steps[0].ScheduledAt))
}
