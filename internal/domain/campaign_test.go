package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSteps() []SequenceStep {
	return []SequenceStep{
		{StepNumber: 1, DelayDays: 0},
		{StepNumber: 2, DelayDays: 3},
	}
}

func TestValidateAcceptsDefaultSettings(t *testing.T) {
	// Campaigns created without explicit settings rely entirely on the
	// zero-value defaults; validation must judge the defaulted window,
	// not the raw 0-0 one.
	c := Campaign{ID: "camp-1", Steps: validSteps()}
	require.NoError(t, c.Validate())
}

func TestValidateRejectsBadWindow(t *testing.T) {
	c := Campaign{ID: "camp-1", Steps: validSteps()}
	c.Settings.StartHour = 17
	c.Settings.EndHour = 9
	assert.Error(t, c.Validate())

	c.Settings.StartHour = 9
	c.Settings.EndHour = 25
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBadSteps(t *testing.T) {
	assert.Error(t, (&Campaign{ID: "camp-1"}).Validate())

	gap := Campaign{ID: "camp-1", Steps: []SequenceStep{
		{StepNumber: 1}, {StepNumber: 3},
	}}
	assert.Error(t, gap.Validate())

	negative := Campaign{ID: "camp-1", Steps: []SequenceStep{
		{StepNumber: 1, DelayDays: -1},
	}}
	assert.Error(t, negative.Validate())
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	s := ScheduleSettings{}.WithDefaults()
	assert.Equal(t, DefaultActiveDays, s.ActiveDays)
	assert.Equal(t, DefaultStartHour, s.StartHour)
	assert.Equal(t, DefaultEndHour, s.EndHour)
	assert.Equal(t, DefaultDailyContactsLimit, s.DailyContactsLimit)
	assert.Equal(t, DefaultDailySequenceLimit, s.DailySequenceLimit)

	custom := ScheduleSettings{StartHour: 8, EndHour: 20}.WithDefaults()
	assert.Equal(t, 8, custom.StartHour)
	assert.Equal(t, 20, custom.EndHour)
}
