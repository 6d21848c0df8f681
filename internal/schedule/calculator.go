package schedule

import (
	"fmt"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/timezone"
)

// Calculator computes the absolute timestamp at which a contact's next
// sequence step should fire. It is deterministic: unchanged inputs always
// produce the same timestamp, which is what makes the persisted next_due_at
// a safe cache and re-evaluation after a crash harmless.
type Calculator struct {
	// DefaultTimezone applies when the contact's location resolves to
	// nothing. Defaults to UTC.
	DefaultTimezone string
}

// Timezone resolves the contact's free-text location to an IANA zone,
// falling back to the calculator default.
func (c *Calculator) Timezone(contact *domain.Contact) string {
	fallback := c.DefaultTimezone
	if fallback == "" {
		fallback = "UTC"
	}
	return timezone.ResolveOrDefault(contact.Location, fallback)
}

// NextDue returns the UTC timestamp for the contact's next step, or nil when
// the sequence is exhausted.
//
// Base date rules: step 1 counts its delay from enrollment; every later step
// counts from the previous confirmed send, so scheduling drift never
// compounds across a long sequence. The time of day is the contact's
// deterministic jitter slot inside the campaign's business window, evaluated
// in the contact's own timezone. Targets landing on an inactive weekday roll
// forward to the next active day, keeping the jittered time of day.
// Zero-delay steps are business-hours-gated rather than instantaneous: if
// their slot has already passed today and the window is closed, they move to
// the next active day instead of firing the moment the engine wakes up.
func (c *Calculator) NextDue(contact *domain.Contact, campaign *domain.Campaign, now time.Time) (*time.Time, error) {
	nextStep := contact.CurrentStep + 1
	step := campaign.Step(nextStep)
	if step == nil {
		return nil, nil
	}

	tz := c.Timezone(contact)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q for contact %s: %w", tz, contact.ID, err)
	}

	settings := campaign.Settings.WithDefaults()

	// Step 1 jitters on the contact id alone; later steps mix in the step
	// number so follow-ups land at a different (still stable) slot.
	jitterStep := 0
	if nextStep > 1 {
		jitterStep = nextStep
	}
	hour, minute := SendTime(contact.ID, jitterStep, settings.StartHour, settings.EndHour)

	var base time.Time
	if contact.CurrentStep == 0 {
		base = contact.CreatedAt
		if step.DelayDays == 0 {
			// Immediate-class first email: target today in the
			// contact's zone, not the enrollment date.
			base = now
		}
	} else {
		if contact.LastContactedAt != nil {
			base = *contact.LastContactedAt
		} else {
			base = contact.CreatedAt
		}
	}

	day := base.In(loc).AddDate(0, 0, step.DelayDays)
	if contact.CurrentStep == 0 && step.DelayDays == 0 {
		day = now.In(loc)
	}
	target := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

	target = rollToActiveDay(target, settings.ActiveDays)

	// Zero-delay emails whose slot already passed: only fire late if the
	// window is currently open, otherwise wait for the next active day.
	if step.DelayDays == 0 && target.Before(now) {
		status, err := InBusinessWindow(tz, settings, now)
		if err != nil {
			return nil, err
		}
		if !status.InWindow {
			next := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc).AddDate(0, 0, 1)
			target = rollToActiveDay(next, settings.ActiveDays)
		}
	}

	utc := target.UTC()
	return &utc, nil
}

// Projection computes the contact's full forward schedule for operator
// inspection: the next step from live state, then each later step chained
// off the previous projected time. Past steps are not included; their facts
// live in the send-record ledger.
func (c *Calculator) Projection(contact *domain.Contact, campaign *domain.Campaign, now time.Time) ([]domain.ScheduledStep, error) {
	var out []domain.ScheduledStep

	cursor := *contact
	for {
		due, err := c.NextDue(&cursor, campaign, now)
		if err != nil {
			return nil, err
		}
		if due == nil {
			break
		}
		stepNumber := cursor.CurrentStep + 1
		out = append(out, domain.ScheduledStep{
			StepNumber:  stepNumber,
			ScheduledAt: *due,
			Status:      "scheduled",
		})
		cursor.CurrentStep = stepNumber
		cursor.LastContactedAt = due
	}
	return out, nil
}

// rollToActiveDay advances the target one day at a time until it lands on an
// active weekday, preserving the jittered time of day. Weekday names are
// evaluated in the target's own location.
func rollToActiveDay(target time.Time, activeDays []string) time.Time {
	// Bounded: any non-empty active set is hit within a week.
	for i := 0; i < 7; i++ {
		if weekdayActive(target.Format("Mon"), activeDays) {
			return target
		}
		target = target.AddDate(0, 0, 1)
	}
	return target
}
