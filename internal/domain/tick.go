package domain

// SkipReason explains why a contact was not (or could not be) sent to during
// a tick. Reasons surface in the tick summary and in automation logging;
// evaluation applies them in a fixed order, first match wins.
type SkipReason string

const (
	ReasonDue                  SkipReason = "due"
	ReasonAlreadySentThisStep  SkipReason = "already_sent_this_step"
	ReasonSequenceComplete     SkipReason = "sequence_complete"
	ReasonNotYetTime           SkipReason = "not_yet_time"
	ReasonOutsideBusinessHours SkipReason = "outside_business_hours"
	ReasonCapReached           SkipReason = "cap_reached"
	ReasonNoSenderAvailable    SkipReason = "no_sender_available"
)

// TickOptions are the trigger-surface parameters for a single evaluation run.
type TickOptions struct {
	// TestMode short-circuits the send collaborator with a simulated
	// success. Scheduling, allocation, and ledger writes all still happen,
	// so deduplication behaves exactly as in a real run.
	TestMode bool `json:"testMode"`
	// CampaignID, when set, restricts the tick to a single campaign.
	CampaignID string `json:"campaignId,omitempty"`
	// ForceUnhealthySenders widens the sender pool to identities below the
	// health threshold. Operational escape hatch; always logged.
	ForceUnhealthySenders bool `json:"forceUnhealthySenders,omitempty"`
}

// TickSummary is the sole synchronous result of a tick. Per-contact failures
// never abort the run; they land in Errors and the run continues.
type TickSummary struct {
	RunID       string             `json:"run_id"`
	Campaigns   int                `json:"campaigns"`
	Processed   int                `json:"processed"`
	Sent        int                `json:"sent"`
	Skipped     int                `json:"skipped"`
	Errors      int                `json:"errors"`
	SkipReasons map[SkipReason]int `json:"skip_reasons,omitempty"`
}

// AddSkip records one skipped contact under the given reason.
func (s *TickSummary) AddSkip(reason SkipReason) {
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[SkipReason]int)
	}
	s.SkipReasons[reason]++
	s.Skipped++
}

// Merge folds a per-campaign summary into the run total.
func (s *TickSummary) Merge(other TickSummary) {
	s.Processed += other.Processed
	s.Sent += other.Sent
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	for reason, n := range other.SkipReasons {
		if s.SkipReasons == nil {
			s.SkipReasons = make(map[SkipReason]int)
		}
		s.SkipReasons[reason] += n
	}
}
