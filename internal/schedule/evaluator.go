package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
)

// Ledger is the slice of the send-record store the evaluator needs: has this
// step already been committed for this contact, in any non-retryable state.
type Ledger interface {
	SentExists(ctx context.Context, campaignID, contactID string, stepNumber int) (bool, error)
}

// Decision is the evaluator's verdict for one contact at one instant.
type Decision struct {
	Due        bool              `json:"due"`
	Reason     domain.SkipReason `json:"reason"`
	StepNumber int               `json:"step_number"`
	// NextDueAt is set when the evaluator had to compute the schedule
	// because the contact carried none; the caller persists it.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`
}

// Evaluator decides whether a contact is due for its next sequence step.
// The ledger check runs first and outranks everything else, including the
// contact's own step counter: after a crash between "record send" and
// "advance step", the counter lies and the ledger tells the truth.
type Evaluator struct {
	Calc   *Calculator
	Ledger Ledger
}

// Evaluate runs the decision rules in fixed order:
// already sent this step, sequence complete, not yet time, outside business
// hours, due. The first rule that fires wins.
func (e *Evaluator) Evaluate(ctx context.Context, contact *domain.Contact, campaign *domain.Campaign, now time.Time) (Decision, error) {
	if contact.IsTerminal() {
		return Decision{Reason: domain.ReasonSequenceComplete}, nil
	}

	nextStep := contact.CurrentStep + 1
	if campaign.Step(nextStep) == nil {
		return Decision{Reason: domain.ReasonSequenceComplete, StepNumber: contact.CurrentStep}, nil
	}

	sent, err := e.Ledger.SentExists(ctx, campaign.ID, contact.ID, nextStep)
	if err != nil {
		return Decision{}, fmt.Errorf("ledger lookup for contact %s step %d: %w", contact.ID, nextStep, err)
	}
	if sent {
		return Decision{Reason: domain.ReasonAlreadySentThisStep, StepNumber: nextStep}, nil
	}

	decision := Decision{StepNumber: nextStep}

	dueAt := contact.NextDueAt
	if dueAt == nil {
		computed, err := e.Calc.NextDue(contact, campaign, now)
		if err != nil {
			return Decision{}, err
		}
		if computed == nil {
			return Decision{Reason: domain.ReasonSequenceComplete, StepNumber: contact.CurrentStep}, nil
		}
		dueAt = computed
		decision.NextDueAt = computed
	}

	if now.Before(*dueAt) {
		decision.Reason = domain.ReasonNotYetTime
		return decision, nil
	}

	settings := campaign.Settings.WithDefaults()
	status, err := InBusinessWindow(e.Calc.Timezone(contact), settings, now)
	if err != nil {
		return Decision{}, err
	}
	if !status.InWindow {
		decision.Reason = domain.ReasonOutsideBusinessHours
		return decision, nil
	}

	decision.Due = true
	decision.Reason = domain.ReasonDue
	return decision, nil
}
