package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/mailing"
	"github.com/ignite/outreach-engine/internal/pkg/distlock"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/sender"
	"github.com/ignite/outreach-engine/internal/store"
)

// RunTick evaluates every active campaign once (or the single campaign named
// in opts) and returns the aggregated summary. Per-contact and per-campaign
// failures are counted, logged, and never abort the run; the returned error
// covers only run-level failures such as not being able to list campaigns.
func (e *Engine) RunTick(ctx context.Context, opts domain.TickOptions) (domain.TickSummary, error) {
	summary := domain.TickSummary{RunID: uuid.New().String()}
	start := e.now()

	logger.Info("tick started",
		"run_id", summary.RunID,
		"test_mode", opts.TestMode,
		"campaign_filter", opts.CampaignID,
	)

	campaigns, err := e.campaigns(ctx, opts)
	if err != nil {
		return summary, err
	}

	for i := range campaigns {
		campaign := &campaigns[i]
		cs, err := e.runCampaign(ctx, campaign, opts, summary.RunID)
		if err != nil {
			logger.Error("campaign tick failed",
				"run_id", summary.RunID,
				"campaign_id", campaign.ID,
				"error", err.Error(),
			)
			summary.Errors++
			continue
		}
		summary.Campaigns++
		summary.Merge(cs)
	}

	logger.Info("tick finished",
		"run_id", summary.RunID,
		"campaigns", summary.Campaigns,
		"processed", summary.Processed,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"duration", e.now().Sub(start).String(),
	)
	return summary, nil
}

func (e *Engine) campaigns(ctx context.Context, opts domain.TickOptions) ([]domain.Campaign, error) {
	if opts.CampaignID != "" {
		c, err := e.store.Campaigns.Campaign(ctx, opts.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("load campaign %s: %w", opts.CampaignID, err)
		}
		return []domain.Campaign{*c}, nil
	}
	list, err := e.store.Campaigns.ActiveCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return list, nil
}

// runCampaign processes one campaign under its distributed lock. A lock held
// elsewhere means another process is already on it; that is a clean skip,
// not an error.
func (e *Engine) runCampaign(ctx context.Context, campaign *domain.Campaign, opts domain.TickOptions, runID string) (domain.TickSummary, error) {
	var cs domain.TickSummary

	if campaign.Status != domain.CampaignActive {
		logger.Debug("campaign not active, skipping", "run_id", runID, "campaign_id", campaign.ID, "status", string(campaign.Status))
		return cs, nil
	}
	if err := campaign.Validate(); err != nil {
		return cs, fmt.Errorf("campaign configuration invalid: %w", err)
	}

	// No lock backend means single-process mode (tests, local dev); ticks
	// are already serialized by the caller there.
	if e.redis != nil || e.db != nil {
		lock := distlock.NewLock(e.redis, e.db, "campaign:"+campaign.ID, e.cfg.LockTTL)
		held, err := lock.Acquire(ctx)
		if err != nil {
			return cs, fmt.Errorf("acquire campaign lock: %w", err)
		}
		if !held {
			logger.Info("campaign locked by another process", "run_id", runID, "campaign_id", campaign.ID)
			return cs, nil
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("campaign lock release failed", "campaign_id", campaign.ID, "error", err.Error())
			}
		}()
	}

	contacts, err := e.store.Contacts.ActiveContacts(ctx, campaign.ID, e.cfg.ContactBatchSize)
	if err != nil {
		return cs, fmt.Errorf("list contacts: %w", err)
	}
	if len(contacts) == 0 {
		return cs, nil
	}

	pool, err := e.buildPool(ctx, campaign.ID, opts)
	if err != nil {
		return cs, err
	}

	settings := campaign.Settings.WithDefaults()

	jobs := make(chan *domain.Contact)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < e.cfg.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for contact := range jobs {
				outcome := e.processContact(ctx, contact, campaign, settings, pool, opts, runID)
				mu.Lock()
				cs.Processed++
				switch {
				case outcome.err != nil:
					cs.Errors++
				case outcome.sent:
					cs.Sent++
				default:
					cs.AddSkip(outcome.reason)
				}
				mu.Unlock()
			}
		}()
	}

	for i := range contacts {
		select {
		case jobs <- &contacts[i]:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return cs, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return cs, nil
}

func (e *Engine) buildPool(ctx context.Context, campaignID string, opts domain.TickOptions) (sender.Pool, error) {
	identities, err := e.store.Senders.CampaignSenders(ctx, campaignID)
	if err != nil {
		return sender.Pool{}, fmt.Errorf("list senders: %w", err)
	}

	emails := make([]string, 0, len(identities))
	for _, id := range identities {
		emails = append(emails, id.Email)
	}
	scores, err := e.health.Scores(ctx, campaignID, emails)
	if err != nil {
		// Health scoring being down must not halt sending outright; the
		// pool builder treats every sender as unscored instead.
		logger.Warn("health score lookup failed", "campaign_id", campaignID, "error", err.Error())
		scores = nil
	}

	pool := sender.BuildPool(identities, scores, sender.PoolOptions{
		MinHealthScore: e.cfg.MinHealthScore,
		ForceUnhealthy: opts.ForceUnhealthySenders,
	})
	logger.Debug("sender pool built",
		"campaign_id", campaignID,
		"eligible", fmt.Sprintf("%d/%d", pool.Size(), len(identities)),
		"forced", pool.Forced,
	)
	return pool, nil
}

type contactOutcome struct {
	sent   bool
	reason domain.SkipReason
	err    error
}

// processContact runs the full per-contact pipeline: evaluate, allocate,
// claim the ledger row, deliver, commit. Every early return releases what it
// reserved.
func (e *Engine) processContact(ctx context.Context, contact *domain.Contact, campaign *domain.Campaign, settings domain.ScheduleSettings, pool sender.Pool, opts domain.TickOptions, runID string) contactOutcome {
	now := e.now()

	decision, err := e.eval.Evaluate(ctx, contact, campaign, now)
	if err != nil {
		logger.Error("evaluation failed", "run_id", runID, "contact_id", contact.ID, "error", err.Error())
		return contactOutcome{err: err}
	}

	// A schedule computed on the fly is persisted so the next tick reads it
	// instead of recomputing.
	if decision.NextDueAt != nil && !decision.Due {
		if err := e.store.Contacts.SetNextDue(ctx, contact.ID, decision.NextDueAt); err != nil {
			logger.Warn("persist next due failed", "contact_id", contact.ID, "error", err.Error())
		}
	}

	if !decision.Due {
		// A ledger row ahead of the contact's counter means a previous run
		// died between the commit and the step advance; repair the counter
		// so the sequence keeps moving.
		if decision.Reason == domain.ReasonAlreadySentThisStep {
			if err := e.repairStep(ctx, contact, campaign, decision.StepNumber); err != nil {
				logger.Warn("step repair failed", "contact_id", contact.ID, "error", err.Error())
			}
		}
		return contactOutcome{reason: decision.Reason}
	}

	step := campaign.Step(decision.StepNumber)

	identity, reason, err := e.alloc.Assign(ctx, pool, contact.ID, campaign.ID, step.StepNumber, settings, now)
	if err != nil {
		return contactOutcome{err: err}
	}
	if identity == nil {
		return contactOutcome{reason: reason}
	}

	rec := &domain.SendRecord{
		CampaignID: campaign.ID,
		ContactID:  contact.ID,
		StepNumber: step.StepNumber,
		SenderID:   identity.ID,
	}
	if err := e.store.Sends.ClaimPending(ctx, rec); err != nil {
		e.alloc.Release(ctx, identity.ID, campaign.ID, step.StepNumber, now)
		if errors.Is(err, store.ErrDuplicateSend) {
			return contactOutcome{reason: domain.ReasonAlreadySentThisStep}
		}
		return contactOutcome{err: err}
	}

	subject, body, err := e.content.Render(step, contact)
	if err != nil {
		e.failAttempt(ctx, rec, identity, campaign.ID, now, err)
		return contactOutcome{err: err}
	}

	result, err := e.send(ctx, opts, &mailing.EmailMessage{
		To:         contact.Email,
		FromEmail:  identity.Email,
		FromName:   e.cfg.FromName,
		Subject:    subject,
		HTMLBody:   body,
		CampaignID: campaign.ID,
		ContactID:  contact.ID,
		StepNumber: step.StepNumber,
	})
	if err != nil {
		e.failAttempt(ctx, rec, identity, campaign.ID, now, err)
		logger.Error("delivery failed",
			"run_id", runID,
			"contact_id", contact.ID,
			"step", fmt.Sprintf("%d", step.StepNumber),
			"error", err.Error(),
		)
		return contactOutcome{err: err}
	}

	if err := e.store.Sends.MarkSent(ctx, campaign.ID, contact.ID, step.StepNumber, identity.ID, result.MessageID, result.SentAt); err != nil {
		if errors.Is(err, store.ErrDuplicateSend) {
			// A concurrent commit beat us; the provider send happened
			// twice but the ledger keeps one truth. Give back the caps.
			e.alloc.Release(ctx, identity.ID, campaign.ID, step.StepNumber, now)
			return contactOutcome{reason: domain.ReasonAlreadySentThisStep}
		}
		return contactOutcome{err: err}
	}

	if err := e.advance(ctx, contact, campaign, step.StepNumber, result.SentAt); err != nil {
		// The send is committed; the next tick's ledger check routes this
		// contact through repairStep, which retries the advance.
		logger.Warn("step advance failed after commit", "contact_id", contact.ID, "error", err.Error())
	}

	logger.Info("email sent",
		"run_id", runID,
		"campaign_id", campaign.ID,
		"contact_id", contact.ID,
		"step", fmt.Sprintf("%d", step.StepNumber),
		"sender", identity.Email,
		"message_id", result.MessageID,
		"simulated", result.Simulated,
	)
	return contactOutcome{sent: true}
}

// send picks the real or simulated transport and applies the send timeout.
func (e *Engine) send(ctx context.Context, opts domain.TickOptions, msg *mailing.EmailMessage) (*mailing.SendResult, error) {
	transport := e.deliver
	if opts.TestMode {
		transport = e.simulated
	}
	if transport == nil {
		return nil, fmt.Errorf("no delivery transport configured")
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
	defer cancel()
	return transport.Send(sendCtx, msg)
}

// failAttempt records the failure and returns the cap reservations.
func (e *Engine) failAttempt(ctx context.Context, rec *domain.SendRecord, identity *domain.SenderIdentity, campaignID string, now time.Time, cause error) {
	if err := e.store.Sends.MarkFailed(ctx, rec.CampaignID, rec.ContactID, rec.StepNumber, cause.Error()); err != nil {
		logger.Warn("mark failed errored", "contact_id", rec.ContactID, "error", err.Error())
	}
	e.alloc.Release(ctx, identity.ID, campaignID, rec.StepNumber, now)
}

// repairStep reconciles a contact whose counter trails the ledger: the step
// was committed but the advance never ran. It replays the advance using the
// committed record's send time.
func (e *Engine) repairStep(ctx context.Context, contact *domain.Contact, campaign *domain.Campaign, step int) error {
	history, err := e.store.Sends.History(ctx, campaign.ID, contact.ID)
	if err != nil {
		return err
	}
	sentAt := e.now()
	for _, rec := range history {
		if rec.StepNumber == step && rec.SentAt != nil {
			sentAt = *rec.SentAt
		}
	}
	return e.advance(ctx, contact, campaign, step, sentAt)
}

// advance commits the new step counter and the recomputed schedule. This is
// the only place next_due_at is recalculated after a send; a contact whose
// sequence is exhausted is marked completed.
func (e *Engine) advance(ctx context.Context, contact *domain.Contact, campaign *domain.Campaign, step int, sentAt time.Time) error {
	next := *contact
	next.CurrentStep = step
	next.LastContactedAt = &sentAt

	nextDue, err := e.calc.NextDue(&next, campaign, e.now())
	if err != nil {
		return err
	}
	if err := e.store.Contacts.AdvanceStep(ctx, contact.ID, step, sentAt, nextDue); err != nil {
		return err
	}
	if nextDue == nil {
		if err := e.store.Contacts.SetEmailStatus(ctx, contact.ID, domain.EmailCompleted); err != nil {
			return err
		}
	}
	return nil
}
