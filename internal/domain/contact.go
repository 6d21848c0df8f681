package domain

import "time"

// EmailStatus is the contact-level sequence state. Every status other than
// active is terminal: the contact is never evaluated again.
type EmailStatus string

const (
	EmailActive       EmailStatus = "active"
	EmailCompleted    EmailStatus = "completed"
	EmailReplied      EmailStatus = "replied"
	EmailUnsubscribed EmailStatus = "unsubscribed"
	EmailBounced      EmailStatus = "bounced"
)

// Contact is one enrolled recipient within a campaign.
//
// CurrentStep is the number of the last step confirmed sent (0 = not yet
// started); it only advances after a sent record is committed to the ledger.
// NextDueAt caches the schedule calculator's output for step CurrentStep+1
// and is authoritative while present — the engine recomputes it in exactly
// one place, on step advance.
type Contact struct {
	ID              string      `json:"id" db:"id"`
	CampaignID      string      `json:"campaign_id" db:"campaign_id"`
	Email           string      `json:"email" db:"email"`
	FirstName       string      `json:"first_name" db:"first_name"`
	LastName        string      `json:"last_name" db:"last_name"`
	Company         string      `json:"company" db:"company"`
	Location        string      `json:"location" db:"location"`
	EmailStatus     EmailStatus `json:"email_status" db:"email_status"`
	CurrentStep     int         `json:"current_step" db:"current_step"`
	LastContactedAt *time.Time  `json:"last_contacted_at" db:"last_contacted_at"`
	NextDueAt       *time.Time  `json:"next_due_at" db:"next_due_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

// IsTerminal reports whether the contact has left the sequence for good.
func (c *Contact) IsTerminal() bool {
	return c.EmailStatus != EmailActive && c.EmailStatus != ""
}
