package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/domain"
)

func testCampaign(delays ...int) *domain.Campaign {
	c := &domain.Campaign{
		ID:     "camp-1",
		Name:   "Q3 Outreach",
		Status: domain.CampaignActive,
	}
	for i, d := range delays {
		c.Steps = append(c.Steps, domain.SequenceStep{
			StepNumber: i + 1,
			DelayDays:  d,
			Subject:    "Hello {{ first_name }}",
			Body:       "Checking in.",
		})
	}
	return c
}

func testContact() *domain.Contact {
	return &domain.Contact{
		ID:          "contact-1",
		CampaignID:  "camp-1",
		Email:       "pat@example.com",
		FirstName:   "Pat",
		Location:    "New York",
		EmailStatus: domain.EmailActive,
		CreatedAt:   time.Date(2025, 6, 20, 14, 0, 0, 0, time.UTC),
	}
}

func TestNextDueWalksSequenceStrictlyForward(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0, 3, 6)
	contact := testContact()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Monday 2025-06-23, 08:00 in New York.
	now := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)

	var dues []time.Time
	for step := 1; step <= 3; step++ {
		due, err := calc.NextDue(contact, campaign, now)
		require.NoError(t, err)
		require.NotNil(t, due, "step %d", step)
		dues = append(dues, *due)

		contact.CurrentStep = step
		contact.LastContactedAt = due
	}

	for i := 1; i < len(dues); i++ {
		require.True(t, dues[i].After(dues[i-1]),
			"step %d due %v not after step %d due %v", i+1, dues[i], i, dues[i-1])
	}

	// Step 1 is immediate-class: same local day as now, at the contact's
	// jitter slot.
	local := dues[0].In(ny)
	h, m := SendTime(contact.ID, 0, domain.DefaultStartHour, domain.DefaultEndHour)
	require.Equal(t, 23, local.Day())
	require.Equal(t, h, local.Hour())
	require.Equal(t, m, local.Minute())

	// Step 2 counts its 3 days from step 1's send, landing Thursday.
	require.Equal(t, 26, dues[1].In(ny).Day())
	require.Equal(t, time.Thursday, dues[1].In(ny).Weekday())

	// Step 3 counts 6 days from step 2, landing Wednesday July 2.
	require.Equal(t, time.July, dues[2].In(ny).Month())
	require.Equal(t, 2, dues[2].In(ny).Day())

	// Sequence exhausted.
	due, err := calc.NextDue(contact, campaign, now)
	require.NoError(t, err)
	require.Nil(t, due)
}

func TestNextDueIdempotent(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0, 3)
	contact := testContact()
	now := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)

	first, err := calc.NextDue(contact, campaign, now)
	require.NoError(t, err)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again, err := calc.NextDue(contact, campaign, now)
		require.NoError(t, err)
		require.Equal(t, *first, *again)
	}
}

func TestNextDueRollsOverInactiveDays(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0, 2)
	contact := testContact()
	ny, _ := time.LoadLocation("America/New_York")

	// Last send Thursday 2025-06-26; a 2-day delay lands on Saturday and
	// must roll to Monday, keeping the jittered time of day.
	last := time.Date(2025, 6, 26, 10, 0, 0, 0, ny).UTC()
	contact.CurrentStep = 1
	contact.LastContactedAt = &last

	now := time.Date(2025, 6, 27, 12, 0, 0, 0, time.UTC)
	due, err := calc.NextDue(contact, campaign, now)
	require.NoError(t, err)
	require.NotNil(t, due)

	local := due.In(ny)
	require.Equal(t, time.Monday, local.Weekday())
	require.Equal(t, 30, local.Day())
	h, m := SendTime(contact.ID, 2, domain.DefaultStartHour, domain.DefaultEndHour)
	require.Equal(t, h, local.Hour())
	require.Equal(t, m, local.Minute())
}

func TestNextDueImmediateStepAfterHours(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0)
	contact := testContact()
	ny, _ := time.LoadLocation("America/New_York")

	// Engine wakes Monday 19:30 local, after the window closed. The missed
	// zero-delay email moves to Tuesday's slot instead of firing at night.
	now := time.Date(2025, 6, 23, 23, 30, 0, 0, time.UTC)
	due, err := calc.NextDue(contact, campaign, now)
	require.NoError(t, err)
	require.NotNil(t, due)

	local := due.In(ny)
	require.Equal(t, 24, local.Day())
	require.Equal(t, time.Tuesday, local.Weekday())
}

func TestNextDueImmediateStepLateButWindowOpen(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0)
	contact := testContact()

	// Monday 16:59:30 local: the jitter slot has passed but the window is
	// still open, so the due time stays in the past and the contact sends
	// on this tick.
	now := time.Date(2025, 6, 23, 20, 59, 30, 0, time.UTC)
	due, err := calc.NextDue(contact, campaign, now)
	require.NoError(t, err)
	require.NotNil(t, due)
	require.True(t, due.Before(now), "due %v should remain in the past", due)
}

func TestNextDueUnknownLocationFallsBack(t *testing.T) {
	calc := &Calculator{DefaultTimezone: "America/Chicago"}
	contact := testContact()
	contact.Location = "Middle of Nowhere"

	require.Equal(t, "America/Chicago", calc.Timezone(contact))
}

func TestProjectionCoversRemainingSteps(t *testing.T) {
	calc := &Calculator{}
	campaign := testCampaign(0, 3, 6)
	contact := testContact()
	now := time.Date(2025, 6, 23, 12, 0, 0, 0, time.UTC)

	steps, err := calc.Projection(contact, campaign, now)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, s := range steps {
		require.Equal(t, i+1, s.StepNumber)
		require.Equal(t, "scheduled", s.Status)
		if i > 0 {
			require.True(t, s.ScheduledAt.After(steps[i-1].ScheduledAt))
		}
	}

	// A contact mid-sequence projects only what is left.
	contact.CurrentStep = 2
	at := steps[1].ScheduledAt
	contact.LastContactedAt = &at
	rest, err := calc.Projection(contact, campaign, now)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, 3, rest[0].StepNumber)
}
