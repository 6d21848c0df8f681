package engine

import (
	"context"
	"fmt"

	"github.com/ignite/outreach-engine/internal/domain"
)

// ContactSchedule assembles the operator-facing view of a contact's
// sequence: ledger facts for steps already attempted, calculator projections
// for the rest.
func (e *Engine) ContactSchedule(ctx context.Context, contactID string) ([]domain.ScheduledStep, error) {
	contact, err := e.store.Contacts.Contact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	campaign, err := e.store.Campaigns.Campaign(ctx, contact.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", contact.CampaignID, err)
	}

	history, err := e.store.Sends.History(ctx, campaign.ID, contact.ID)
	if err != nil {
		return nil, err
	}
	byStep := make(map[int]domain.SendRecord, len(history))
	for _, rec := range history {
		byStep[rec.StepNumber] = rec
	}

	var out []domain.ScheduledStep
	for _, step := range campaign.Steps {
		rec, ok := byStep[step.StepNumber]
		if !ok {
			continue
		}
		entry := domain.ScheduledStep{StepNumber: step.StepNumber, Status: string(rec.Status)}
		if rec.SentAt != nil {
			entry.ScheduledAt = *rec.SentAt
		} else {
			entry.ScheduledAt = rec.UpdatedAt
		}
		out = append(out, entry)
	}

	future, err := e.calc.Projection(contact, campaign, e.now())
	if err != nil {
		return nil, err
	}
	// Ledger rows win over projections for the same step; a failed step is
	// shown once, with its retry time implied by the projection ordering.
	for _, f := range future {
		if _, taken := byStep[f.StepNumber]; taken {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
