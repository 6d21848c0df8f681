package schedule

import (
	"testing"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
)

func TestInBusinessWindowLondon(t *testing.T) {
	settings := domain.ScheduleSettings{}.WithDefaults()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{
			// 09:00 UTC is 10:00 BST on a Wednesday.
			name: "weekday morning inside window",
			at:   time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			// 19:00 UTC is 20:00 BST, past the 17:00 cutoff.
			name: "weekday evening outside window",
			at:   time.Date(2025, 6, 25, 19, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			// 08:00 UTC is exactly 09:00 BST, the inclusive start.
			name: "window start is inclusive",
			at:   time.Date(2025, 6, 25, 8, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			// 16:00 UTC is 17:00 BST, the exclusive end.
			name: "window end is exclusive",
			at:   time.Date(2025, 6, 25, 16, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "saturday inside hours still closed",
			at:   time.Date(2025, 6, 28, 9, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := InBusinessWindow("Europe/London", settings, tt.at)
			if err != nil {
				t.Fatalf("InBusinessWindow: %v", err)
			}
			if status.InWindow != tt.want {
				t.Errorf("InWindow = %v (weekday=%s hour=%d), want %v",
					status.InWindow, status.Weekday, status.Hour, tt.want)
			}
		})
	}
}

func TestInBusinessWindowCustomDays(t *testing.T) {
	settings := domain.ScheduleSettings{
		ActiveDays: []string{"Sat", "Sun"},
		StartHour:  8,
		EndHour:    12,
	}
	// Saturday 10:00 in Sydney.
	at := time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC) // 10:00 AEST
	status, err := InBusinessWindow("Australia/Sydney", settings, at)
	if err != nil {
		t.Fatalf("InBusinessWindow: %v", err)
	}
	if !status.InWindow {
		t.Errorf("weekend-only window closed on Saturday 10:00 local (weekday=%s hour=%d)", status.Weekday, status.Hour)
	}
}

func TestInBusinessWindowBadZone(t *testing.T) {
	_, err := InBusinessWindow("Not/AZone", domain.ScheduleSettings{}.WithDefaults(), time.Now())
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
