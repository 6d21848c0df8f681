package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

// SenderRepo implements store.SenderStore.
type SenderRepo struct{ db *sql.DB }

func NewSenderRepo(db *sql.DB) *SenderRepo { return &SenderRepo{db: db} }

func (r *SenderRepo) CampaignSenders(ctx context.Context, campaignID string) ([]domain.SenderIdentity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, email, is_active, is_selected, COALESCE(daily_limit, 0)
		FROM campaign_senders
		WHERE campaign_id = $1
		ORDER BY email
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list campaign senders: %w", err)
	}
	defer rows.Close()

	var out []domain.SenderIdentity
	for rows.Next() {
		var s domain.SenderIdentity
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.Email, &s.IsActive, &s.IsSelected, &s.DailyLimit); err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Sender reads one identity by id.
func (r *SenderRepo) Sender(ctx context.Context, id string) (*domain.SenderIdentity, error) {
	var s domain.SenderIdentity
	err := r.db.QueryRowContext(ctx, `
		SELECT id, campaign_id, email, is_active, is_selected, COALESCE(daily_limit, 0)
		FROM campaign_senders
		WHERE id = $1
	`, id).Scan(&s.ID, &s.CampaignID, &s.Email, &s.IsActive, &s.IsSelected, &s.DailyLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load sender %s: %w", id, err)
	}
	return &s, nil
}
