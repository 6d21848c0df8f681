package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/store"
)

// SendRecordRepo implements the idempotency ledger over the send_records
// table. The unique key on (campaign_id, contact_id, step_number) is what
// makes concurrent ticks safe; every write here leans on it.
type SendRecordRepo struct{ db *sql.DB }

func NewSendRecordRepo(db *sql.DB) *SendRecordRepo { return &SendRecordRepo{db: db} }

// ClaimPending inserts the attempt row, or re-arms one left in failed or
// pending status. ON CONFLICT DO NOTHING keeps the insert idempotent under
// races, and the follow-up update never touches a row that reached sent.
// Re-arming pending is safe because the per-campaign tick lock means a
// pending row can only be the residue of a crashed earlier run.
func (r *SendRecordRepo) ClaimPending(ctx context.Context, rec *domain.SendRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO send_records
			(campaign_id, contact_id, step_number, status, sender_id, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, NOW(), NOW())
		ON CONFLICT (campaign_id, contact_id, step_number) DO NOTHING
	`, rec.CampaignID, rec.ContactID, rec.StepNumber, rec.SenderID)
	if err != nil {
		return fmt.Errorf("claim pending send: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		rec.Status = domain.SendPending
		return nil
	}

	res, err = r.db.ExecContext(ctx, `
		UPDATE send_records
		SET status = 'pending', sender_id = $4, error_message = '', updated_at = NOW()
		WHERE campaign_id = $1 AND contact_id = $2 AND step_number = $3
		  AND status != 'sent'
	`, rec.CampaignID, rec.ContactID, rec.StepNumber, rec.SenderID)
	if err != nil {
		return fmt.Errorf("re-arm send record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		rec.Status = domain.SendPending
		return nil
	}
	return store.ErrDuplicateSend
}

// MarkSent finalizes the attempt. The status guard makes the transition
// one-way: a row already at sent reports ErrDuplicateSend instead of being
// overwritten.
func (r *SendRecordRepo) MarkSent(ctx context.Context, campaignID, contactID string, step int, senderID, providerMessageID string, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE send_records
		SET status = 'sent', sender_id = $4, provider_message_id = $5,
		    sent_at = $6, error_message = '', updated_at = NOW()
		WHERE campaign_id = $1 AND contact_id = $2 AND step_number = $3
		  AND status != 'sent'
	`, campaignID, contactID, step, senderID, providerMessageID, sentAt)
	if err != nil {
		return fmt.Errorf("mark send sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := r.SentExists(ctx, campaignID, contactID, step)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrDuplicateSend
		}
		return fmt.Errorf("send record %s/%s/%d: %w", campaignID, contactID, step, store.ErrNotFound)
	}
	return nil
}

// MarkFailed records the failure; the row remains eligible for retry.
func (r *SendRecordRepo) MarkFailed(ctx context.Context, campaignID, contactID string, step int, errorMessage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE send_records
		SET status = 'failed', error_message = $4, updated_at = NOW()
		WHERE campaign_id = $1 AND contact_id = $2 AND step_number = $3
		  AND status = 'pending'
	`, campaignID, contactID, step, errorMessage)
	if err != nil {
		return fmt.Errorf("mark send failed: %w", err)
	}
	return nil
}

func (r *SendRecordRepo) SentExists(ctx context.Context, campaignID, contactID string, step int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM send_records
			WHERE campaign_id = $1 AND contact_id = $2 AND step_number = $3
			  AND status = 'sent'
		)
	`, campaignID, contactID, step).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sent exists: %w", err)
	}
	return exists, nil
}

func (r *SendRecordRepo) History(ctx context.Context, campaignID, contactID string) ([]domain.SendRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id, contact_id, step_number, status,
		       COALESCE(sender_id,''), COALESCE(provider_message_id,''),
		       COALESCE(error_message,''), sent_at, created_at, updated_at
		FROM send_records
		WHERE campaign_id = $1 AND contact_id = $2
		ORDER BY step_number
	`, campaignID, contactID)
	if err != nil {
		return nil, fmt.Errorf("list send history: %w", err)
	}
	defer rows.Close()

	var out []domain.SendRecord
	for rows.Next() {
		var rec domain.SendRecord
		if err := rows.Scan(
			&rec.CampaignID, &rec.ContactID, &rec.StepNumber, &rec.Status,
			&rec.SenderID, &rec.ProviderMessageID,
			&rec.ErrorMessage, &rec.SentAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan send record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountSenderSentToday counts committed sends for a sender over the UTC day.
func (r *SendRecordRepo) CountSenderSentToday(ctx context.Context, senderID string, day time.Time) (int, error) {
	return r.countSentToday(ctx, `sender_id = $1`, senderID, day)
}

// CountCampaignSentToday counts committed sends for a campaign over the UTC day.
func (r *SendRecordRepo) CountCampaignSentToday(ctx context.Context, campaignID string, day time.Time) (int, error) {
	return r.countSentToday(ctx, `campaign_id = $1`, campaignID, day)
}

// CountCampaignStartsToday counts committed step-1 sends for a campaign over
// the UTC day: the contacts newly engaged.
func (r *SendRecordRepo) CountCampaignStartsToday(ctx context.Context, campaignID string, day time.Time) (int, error) {
	return r.countSentToday(ctx, `campaign_id = $1 AND step_number = 1`, campaignID, day)
}

func (r *SendRecordRepo) countSentToday(ctx context.Context, where, id string, day time.Time) (int, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM send_records
		WHERE `+where+` AND status = 'sent' AND sent_at >= $2 AND sent_at < $3
	`, id, start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sent today: %w", err)
	}
	return n, nil
}
