// Package postgres implements the store interfaces against PostgreSQL using
// database/sql with lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

// New wires all four repositories over one connection pool.
func New(db *sql.DB) store.Store {
	return store.Store{
		Campaigns: NewCampaignRepo(db),
		Contacts:  NewContactRepo(db),
		Senders:   NewSenderRepo(db),
		Sends:     NewSendRecordRepo(db),
	}
}

// CampaignRepo implements store.CampaignStore.
type CampaignRepo struct{ db *sql.DB }

func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

func (r *CampaignRepo) Campaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var days pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, status,
		       active_days, start_hour, end_hour,
		       daily_contacts_limit, daily_sequence_limit,
		       created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Name, &c.Status,
		&days, &c.Settings.StartHour, &c.Settings.EndHour,
		&c.Settings.DailyContactsLimit, &c.Settings.DailySequenceLimit,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	c.Settings.ActiveDays = days

	if c.Steps, err = r.steps(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepo) ActiveCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status,
		       active_days, start_hour, end_hour,
		       daily_contacts_limit, daily_sequence_limit,
		       created_at, updated_at
		FROM campaigns
		WHERE status = 'active'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var days pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Status,
			&days, &c.Settings.StartHour, &c.Settings.EndHour,
			&c.Settings.DailyContactsLimit, &c.Settings.DailySequenceLimit,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		c.Settings.ActiveDays = days
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}

	for i := range out {
		if out[i].Steps, err = r.steps(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *CampaignRepo) steps(ctx context.Context, campaignID string) ([]domain.SequenceStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT step_number, delay_days, subject, body
		FROM sequence_steps
		WHERE campaign_id = $1
		ORDER BY step_number
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list sequence steps for %s: %w", campaignID, err)
	}
	defer rows.Close()

	var steps []domain.SequenceStep
	for rows.Next() {
		var s domain.SequenceStep
		if err := rows.Scan(&s.StepNumber, &s.DelayDays, &s.Subject, &s.Body); err != nil {
			return nil, fmt.Errorf("scan sequence step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
