// Package schedule implements the sequence scheduling core: deterministic
// per-contact send-time jitter, business-window evaluation, the next-step
// schedule calculator, and the due-contact decision.
package schedule

// The jitter seed is a polynomial rolling hash (multiplier 31) of the contact
// identifier, optionally mixed with the step number so later steps land at a
// different time of day. It is intentionally a plain hash and not a seeded
// PRNG: the contract is that the same identifier always produces the same
// hour and minute, across processes and across retries, while different
// contacts spread roughly uniformly over the window. That keeps send times
// from looking bot-uniform without making them irreproducible.

const seedSpace = 1000

// jitterSeed reduces the identifier (and step) to a stable value in
// [0, seedSpace). Arithmetic wraps in int32 on purpose; the wraparound is
// part of the stable output, not an overflow bug.
func jitterSeed(id string, step int) int {
	var h int32
	for _, ch := range id {
		h = h*31 + int32(ch)
	}
	h += int32(step) + 1
	seed := int(h % seedSpace)
	if seed < 0 {
		seed = -seed
	}
	return seed
}

// SendTime returns the deterministic hour and minute for a contact within
// [startHour, endHour). Pass step 0 for the first sequence email; later steps
// pass their step number so each step gets its own (still stable) slot.
func SendTime(contactID string, step, startHour, endHour int) (hour, minute int) {
	span := endHour - startHour
	if span <= 0 {
		span = 1
	}
	seed := jitterSeed(contactID, step)
	hour = startHour + seed%span
	minute = (seed * 7) % 60
	return hour, minute
}
