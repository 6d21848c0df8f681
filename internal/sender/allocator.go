package sender

import (
	"context"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
)

// SenderLookup re-reads a sender identity from the store at allocation
// time. The pool is a snapshot taken at tick start; the lookup catches an
// identity deactivated after the snapshot.
type SenderLookup interface {
	Sender(ctx context.Context, id string) (*domain.SenderIdentity, error)
}

// Allocator assigns a contact to a sending identity for one send attempt.
//
// Assignment is anchored on a stable hash of the contact id, so a contact
// keeps hearing from the same identity across steps as long as that identity
// stays eligible and under cap. When the anchor is at cap, the allocator
// probes the rest of the pool in rotation order before giving up.
type Allocator struct {
	Caps *CapTracker
	// Senders, when set, is consulted before committing a candidate so a
	// mid-tick deactivation fails closed. Nil skips the re-check.
	Senders SenderLookup
}

// Assign reserves cap and picks a sender for the contact's step. Two
// campaign-level budgets apply: every send draws on the daily sequence
// limit, and a step-1 send additionally draws on the daily contacts limit
// (new contacts engaged per day). A nil sender comes with the skip reason:
// cap_reached when a daily limit blocked the send, no_sender_available when
// the pool is empty or every candidate has gone inactive.
//
// On success all reservations are held; the caller must release them if the
// send attempt fails.
func (a *Allocator) Assign(ctx context.Context, pool Pool, contactID, campaignID string, stepNumber int, settings domain.ScheduleSettings, now time.Time) (*domain.SenderIdentity, domain.SkipReason, error) {
	if pool.Size() == 0 {
		return nil, domain.ReasonNoSenderAvailable, nil
	}

	ok, err := a.Caps.ReserveCampaign(ctx, campaignID, settings.DailySequenceLimit, now)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, domain.ReasonCapReached, nil
	}
	if stepNumber == 1 {
		ok, err := a.Caps.ReserveCampaignStart(ctx, campaignID, settings.DailyContactsLimit, now)
		if err != nil {
			a.Caps.ReleaseCampaign(ctx, campaignID, now)
			return nil, "", err
		}
		if !ok {
			a.Caps.ReleaseCampaign(ctx, campaignID, now)
			return nil, domain.ReasonCapReached, nil
		}
	}

	anchor := stableIndex(contactID, pool.Size())
	capDenied := false
	for i := 0; i < pool.Size(); i++ {
		candidate := &pool.Senders[(anchor+i)%pool.Size()]
		ok, err := a.Caps.ReserveSender(ctx, candidate.ID, candidate.EffectiveDailyLimit(), now)
		if err != nil {
			a.releaseCampaign(ctx, campaignID, stepNumber, now)
			return nil, "", err
		}
		if !ok {
			capDenied = true
			continue
		}

		active, err := a.stillActive(ctx, candidate.ID)
		if err != nil {
			a.Caps.ReleaseSender(ctx, candidate.ID, now)
			a.releaseCampaign(ctx, campaignID, stepNumber, now)
			return nil, "", err
		}
		if !active {
			a.Caps.ReleaseSender(ctx, candidate.ID, now)
			continue
		}
		return candidate, "", nil
	}

	a.releaseCampaign(ctx, campaignID, stepNumber, now)
	if capDenied {
		return nil, domain.ReasonCapReached, nil
	}
	return nil, domain.ReasonNoSenderAvailable, nil
}

// stillActive re-checks the candidate against the store; without a lookup
// the pool snapshot is trusted.
func (a *Allocator) stillActive(ctx context.Context, senderID string) (bool, error) {
	if a.Senders == nil {
		return true, nil
	}
	current, err := a.Senders.Sender(ctx, senderID)
	if err != nil {
		return false, err
	}
	return current != nil && current.IsActive, nil
}

// Release undoes every reservation held for the attempt.
func (a *Allocator) Release(ctx context.Context, senderID, campaignID string, stepNumber int, now time.Time) {
	a.Caps.ReleaseSender(ctx, senderID, now)
	a.releaseCampaign(ctx, campaignID, stepNumber, now)
}

func (a *Allocator) releaseCampaign(ctx context.Context, campaignID string, stepNumber int, now time.Time) {
	a.Caps.ReleaseCampaign(ctx, campaignID, now)
	if stepNumber == 1 {
		a.Caps.ReleaseCampaignStart(ctx, campaignID, now)
	}
}

// stableIndex maps the contact id onto a pool slot with the same rolling
// hash the scheduler uses for jitter, wrapping in int32.
func stableIndex(id string, n int) int {
	var h int32
	for _, ch := range id {
		h = h*31 + int32(ch)
	}
	idx := int(h % int32(n))
	if idx < 0 {
		idx = -idx
	}
	return idx
}
