package domain

import (
	"fmt"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is a multi-step outbound sequence. Only campaigns in active status
// have their contacts evaluated; pausing or completing a campaign removes its
// contacts from evaluation without touching their per-step state.
type Campaign struct {
	ID        string           `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Status    CampaignStatus   `json:"status" db:"status"`
	Steps     []SequenceStep   `json:"steps" db:"-"`
	Settings  ScheduleSettings `json:"settings" db:"-"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// Step returns the sequence step with the given 1-based number, or nil when
// the sequence has no such step (the contact has exhausted the sequence).
func (c *Campaign) Step(number int) *SequenceStep {
	for i := range c.Steps {
		if c.Steps[i].StepNumber == number {
			return &c.Steps[i]
		}
	}
	return nil
}

// Validate checks the structural invariants the engine depends on: at least
// one step, step numbers 1-based, strictly increasing with no gaps or
// duplicates, and a sane business-hour window. Settings are validated after
// defaulting, so a campaign relying on zero-value defaults is valid.
func (c *Campaign) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("campaign %s has no sequence steps", c.ID)
	}
	for i, s := range c.Steps {
		if s.StepNumber != i+1 {
			return fmt.Errorf("campaign %s: step at position %d has number %d, want %d", c.ID, i, s.StepNumber, i+1)
		}
		if s.DelayDays < 0 {
			return fmt.Errorf("campaign %s step %d: negative delay %d", c.ID, s.StepNumber, s.DelayDays)
		}
	}
	settings := c.Settings.WithDefaults()
	if settings.StartHour < 0 || settings.EndHour > 24 || settings.StartHour >= settings.EndHour {
		return fmt.Errorf("campaign %s: invalid business window %d-%d", c.ID, settings.StartHour, settings.EndHour)
	}
	return nil
}

// SequenceStep is one email position in an ordered campaign sequence.
// DelayDays is relative: from enrollment for step 1, from the previous sent
// step otherwise. Subject and Body are opaque templates; personalization is
// the content collaborator's job.
type SequenceStep struct {
	StepNumber int    `json:"step_number" db:"step_number"`
	DelayDays  int    `json:"delay_days" db:"delay_days"`
	Subject    string `json:"subject" db:"subject"`
	Body       string `json:"body" db:"body"`
}

// Default schedule-setting values, matching what campaign setup writes when
// the operator leaves fields blank.
const (
	DefaultStartHour          = 9
	DefaultEndHour            = 17
	DefaultDailyContactsLimit = 35
	DefaultDailySequenceLimit = 100
)

// DefaultActiveDays is the Monday-Friday sending window.
var DefaultActiveDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// ScheduleSettings are the campaign-level constraints on when and how much
// the engine may send. Hours are in the contact's local timezone; the window
// is [StartHour, EndHour).
type ScheduleSettings struct {
	ActiveDays         []string `json:"active_days" db:"active_days"`
	StartHour          int      `json:"start_hour" db:"start_hour"`
	EndHour            int      `json:"end_hour" db:"end_hour"`
	DailyContactsLimit int      `json:"daily_contacts_limit" db:"daily_contacts_limit"`
	DailySequenceLimit int      `json:"daily_sequence_limit" db:"daily_sequence_limit"`
}

// WithDefaults returns a copy with zero-valued fields replaced by defaults.
func (s ScheduleSettings) WithDefaults() ScheduleSettings {
	if len(s.ActiveDays) == 0 {
		s.ActiveDays = append([]string(nil), DefaultActiveDays...)
	}
	if s.StartHour == 0 && s.EndHour == 0 {
		s.StartHour = DefaultStartHour
		s.EndHour = DefaultEndHour
	}
	if s.DailyContactsLimit == 0 {
		s.DailyContactsLimit = DefaultDailyContactsLimit
	}
	if s.DailySequenceLimit == 0 {
		s.DailySequenceLimit = DefaultDailySequenceLimit
	}
	return s
}
