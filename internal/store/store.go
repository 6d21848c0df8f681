// Package store defines the persistence boundary of the engine: campaigns,
// contacts, sender identities, and the send-record ledger. The postgres
// subpackage is the production implementation; memory backs tests and
// single-process development.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSend is returned when a ledger write targets a
	// (campaign, contact, step) that has already reached sent status.
	// Callers treat it as an idempotent no-op, not a failure.
	ErrDuplicateSend = errors.New("send already recorded")
)

// CampaignStore reads campaign definitions with their sequence steps and
// schedule settings.
type CampaignStore interface {
	ActiveCampaigns(ctx context.Context) ([]domain.Campaign, error)
	Campaign(ctx context.Context, id string) (*domain.Campaign, error)
}

// ContactStore reads and advances per-contact sequence state.
type ContactStore interface {
	// ActiveContacts returns the campaign's evaluable contacts, oldest
	// enrollment first, capped at limit.
	ActiveContacts(ctx context.Context, campaignID string, limit int) ([]domain.Contact, error)
	Contact(ctx context.Context, id string) (*domain.Contact, error)

	// AdvanceStep commits a confirmed send: bumps current_step, stamps
	// last_contacted_at, and swaps in the freshly computed next_due_at
	// (nil when the sequence is exhausted).
	AdvanceStep(ctx context.Context, contactID string, step int, sentAt time.Time, nextDueAt *time.Time) error

	// SetNextDue persists a computed schedule for a contact whose cached
	// next_due_at was missing, without touching step state.
	SetNextDue(ctx context.Context, contactID string, nextDueAt *time.Time) error

	// SetEmailStatus moves a contact between sequence states (completed,
	// replied, unsubscribed, bounced).
	SetEmailStatus(ctx context.Context, contactID string, status domain.EmailStatus) error
}

// SenderStore reads the identities assigned to a campaign.
type SenderStore interface {
	CampaignSenders(ctx context.Context, campaignID string) ([]domain.SenderIdentity, error)

	// Sender reads one identity by id; the allocator re-checks is_active
	// through it right before committing a send.
	Sender(ctx context.Context, id string) (*domain.SenderIdentity, error)
}

// SendRecordStore is the idempotency ledger. One row per
// (campaign, contact, step); status moves pending -> sent or
// pending -> failed, and sent is final.
type SendRecordStore interface {
	// ClaimPending inserts (or re-arms a previously failed) pending row
	// for the attempt. Returns ErrDuplicateSend when the step has already
	// been sent.
	ClaimPending(ctx context.Context, rec *domain.SendRecord) error

	// MarkSent finalizes the row. Returns ErrDuplicateSend when a
	// concurrent attempt finalized it first.
	MarkSent(ctx context.Context, campaignID, contactID string, step int, senderID, providerMessageID string, sentAt time.Time) error

	// MarkFailed records a failed attempt; the row stays retryable.
	MarkFailed(ctx context.Context, campaignID, contactID string, step int, errorMessage string) error

	SentExists(ctx context.Context, campaignID, contactID string, step int) (bool, error)

	// History returns the contact's ledger rows in step order.
	History(ctx context.Context, campaignID, contactID string) ([]domain.SendRecord, error)

	// Daily counts cover sent rows only, over the UTC day; failed
	// attempts consumed no provider volume. Starts are step-1 sends,
	// the contacts newly engaged that day.
	CountSenderSentToday(ctx context.Context, senderID string, day time.Time) (int, error)
	CountCampaignSentToday(ctx context.Context, campaignID string, day time.Time) (int, error)
	CountCampaignStartsToday(ctx context.Context, campaignID string, day time.Time) (int, error)
}

// Store bundles the four persistence surfaces the engine needs.
type Store struct {
	Campaigns CampaignStore
	Contacts  ContactStore
	Senders   SenderStore
	Sends     SendRecordStore
}
