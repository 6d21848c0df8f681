package schedule

import "testing"

func TestSendTimeDeterministic(t *testing.T) {
	h1, m1 := SendTime("contact-42", 0, 9, 17)
	for i := 0; i < 100; i++ {
		h2, m2 := SendTime("contact-42", 0, 9, 17)
		if h2 != h1 || m2 != m1 {
			t.Fatalf("SendTime unstable: got %d:%02d then %d:%02d", h1, m1, h2, m2)
		}
	}
}

func TestSendTimeKnownValues(t *testing.T) {
	// "a" hashes to 97, +1 for step 0 gives seed 98:
	// hour 9+98%8 = 11, minute 98*7%60 = 26.
	h, m := SendTime("a", 0, 9, 17)
	if h != 11 || m != 26 {
		t.Errorf("SendTime(a, 0) = %d:%02d, want 11:26", h, m)
	}
	h, m = SendTime("ab", 0, 9, 17)
	if h != 11 || m != 22 {
		t.Errorf("SendTime(ab, 0) = %d:%02d, want 11:22", h, m)
	}
}

func TestSendTimeWithinWindow(t *testing.T) {
	ids := []string{"", "x", "contact-1", "550e8400-e29b-41d4-a716-446655440000", "u-998877"}
	for _, id := range ids {
		for step := 0; step <= 5; step++ {
			h, m := SendTime(id, step, 9, 17)
			if h < 9 || h >= 17 {
				t.Errorf("SendTime(%q, %d) hour %d outside [9,17)", id, step, h)
			}
			if m < 0 || m >= 60 {
				t.Errorf("SendTime(%q, %d) minute %d outside [0,60)", id, step, m)
			}
		}
	}
}

func TestSendTimeDegenerateWindow(t *testing.T) {
	// A zero or inverted window collapses to a single hour at startHour.
	h, _ := SendTime("contact-1", 0, 9, 9)
	if h != 9 {
		t.Errorf("degenerate window hour = %d, want 9", h)
	}
	h, _ = SendTime("contact-1", 0, 14, 10)
	if h != 14 {
		t.Errorf("inverted window hour = %d, want 14", h)
	}
}

func TestJitterSeedStepSpread(t *testing.T) {
	// Consecutive steps for the same contact shift the seed by exactly one,
	// which moves the minute and usually the hour.
	s0 := jitterSeed("contact-1", 0)
	s2 := jitterSeed("contact-1", 2)
	if s2 == s0 {
		t.Errorf("seed identical across steps: %d", s0)
	}
}
