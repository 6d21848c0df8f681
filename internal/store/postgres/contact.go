package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

// ContactRepo implements store.ContactStore.
type ContactRepo struct{ db *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

const contactColumns = `
	id, campaign_id, email,
	COALESCE(first_name,''), COALESCE(last_name,''),
	COALESCE(company,''), COALESCE(location,''),
	email_status, current_step, last_contacted_at, next_due_at, created_at`

func scanContact(row interface{ Scan(...interface{}) error }) (*domain.Contact, error) {
	c := &domain.Contact{}
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.Email,
		&c.FirstName, &c.LastName,
		&c.Company, &c.Location,
		&c.EmailStatus, &c.CurrentStep, &c.LastContactedAt, &c.NextDueAt, &c.CreatedAt,
	)
	return c, err
}

func (r *ContactRepo) Contact(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepo) ActiveContacts(ctx context.Context, campaignID string, limit int) ([]domain.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE campaign_id = $1 AND email_status = 'active'
		ORDER BY created_at
		LIMIT $2
	`, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContactRepo) AdvanceStep(ctx context.Context, contactID string, step int, sentAt time.Time, nextDueAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contacts
		SET current_step = $2, last_contacted_at = $3, next_due_at = $4
		WHERE id = $1
	`, contactID, step, sentAt, nextDueAt)
	if err != nil {
		return fmt.Errorf("advance contact %s to step %d: %w", contactID, step, err)
	}
	return requireRow(res, contactID)
}

func (r *ContactRepo) SetNextDue(ctx context.Context, contactID string, nextDueAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET next_due_at = $2 WHERE id = $1`, contactID, nextDueAt)
	if err != nil {
		return fmt.Errorf("set next due for contact %s: %w", contactID, err)
	}
	return requireRow(res, contactID)
}

func (r *ContactRepo) SetEmailStatus(ctx context.Context, contactID string, status domain.EmailStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET email_status = $2 WHERE id = $1`, contactID, status)
	if err != nil {
		return fmt.Errorf("set status for contact %s: %w", contactID, err)
	}
	return requireRow(res, contactID)
}

func requireRow(res sql.Result, contactID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("contact %s: %w", contactID, store.ErrNotFound)
	}
	return nil
}
