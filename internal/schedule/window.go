package schedule

import (
	"fmt"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
)

// WindowStatus reports whether an instant falls inside a campaign's sending
// window, plus the resolved local weekday/hour for diagnostics and logging.
type WindowStatus struct {
	InWindow bool   `json:"in_window"`
	Weekday  string `json:"weekday"`
	Hour     int    `json:"hour"`
}

// InBusinessWindow checks the instant against the campaign's active weekdays
// and [StartHour, EndHour) business hours, evaluated in the given timezone.
// DST is whatever the platform tzdata says it is; no manual offset math.
func InBusinessWindow(tz string, settings domain.ScheduleSettings, at time.Time) (WindowStatus, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return WindowStatus{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	local := at.In(loc)
	status := WindowStatus{
		Weekday: local.Format("Mon"),
		Hour:    local.Hour(),
	}

	if !weekdayActive(status.Weekday, settings.ActiveDays) {
		return status, nil
	}
	if status.Hour < settings.StartHour || status.Hour >= settings.EndHour {
		return status, nil
	}
	status.InWindow = true
	return status, nil
}

func weekdayActive(day string, activeDays []string) bool {
	for _, d := range activeDays {
		if d == day {
			return true
		}
	}
	return false
}
