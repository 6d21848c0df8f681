package domain

// DefaultSenderDailyLimit applies when a sender row has no explicit limit.
const DefaultSenderDailyLimit = 50

// SenderIdentity is one campaign-assigned sending account. Only identities
// that are active, selected into the campaign, and at or above the health
// threshold participate in allocation; the force-unhealthy override widens
// the pool but is always recorded on the allocation outcome.
type SenderIdentity struct {
	ID          string `json:"id" db:"id"`
	CampaignID  string `json:"campaign_id" db:"campaign_id"`
	Email       string `json:"email" db:"email"`
	IsActive    bool   `json:"is_active" db:"is_active"`
	IsSelected  bool   `json:"is_selected" db:"is_selected"`
	DailyLimit  int    `json:"daily_limit" db:"daily_limit"`
	HealthScore int    `json:"health_score" db:"-"`
}

// EffectiveDailyLimit returns the sender's cap, defaulting when unset.
func (s *SenderIdentity) EffectiveDailyLimit() int {
	if s.DailyLimit <= 0 {
		return DefaultSenderDailyLimit
	}
	return s.DailyLimit
}
