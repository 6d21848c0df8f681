package domain

import "time"

// SendRecordStatus is the lifecycle of one (campaign, contact, step) attempt.
type SendRecordStatus string

const (
	SendPending SendRecordStatus = "pending"
	SendSent    SendRecordStatus = "sent"
	SendFailed  SendRecordStatus = "failed"
)

// SendRecord is one row of the idempotency ledger. The ledger holds at most
// one row per (CampaignID, ContactID, StepNumber); the row's status moves
// pending -> sent or pending -> failed, and a row that has reached sent can
// never transition again. Failed rows are retried on later ticks and are
// excluded from daily cap counting, since a failed attempt consumed no
// provider volume.
type SendRecord struct {
	CampaignID        string           `json:"campaign_id" db:"campaign_id"`
	ContactID         string           `json:"contact_id" db:"contact_id"`
	StepNumber        int              `json:"step_number" db:"step_number"`
	Status            SendRecordStatus `json:"status" db:"status"`
	SenderID          string           `json:"sender_id" db:"sender_id"`
	ProviderMessageID string           `json:"provider_message_id" db:"provider_message_id"`
	ErrorMessage      string           `json:"error_message" db:"error_message"`
	SentAt            *time.Time       `json:"sent_at" db:"sent_at"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at" db:"updated_at"`
}

// ScheduledStep is the read-only projection of a contact's computed schedule
// exposed for operator inspection: one entry per sequence step with the
// timestamp the engine intends (or intended) to fire it.
type ScheduledStep struct {
	StepNumber  int       `json:"step"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
}
