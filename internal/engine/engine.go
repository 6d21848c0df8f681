// Package engine is the tick orchestrator: it walks active campaigns under a
// per-campaign distributed lock, evaluates which contacts are due, allocates
// senders under daily caps, delivers, and commits results to the send-record
// ledger and contact state.
package engine

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/mailing"
	"github.com/ignite/outreach-engine/internal/schedule"
	"github.com/ignite/outreach-engine/internal/sender"
	"github.com/ignite/outreach-engine/internal/store"
)

// ContentProvider renders the subject and body for one contact and step.
type ContentProvider interface {
	Render(step *domain.SequenceStep, contact *domain.Contact) (subject, body string, err error)
}

// Config tunes a tick run. Zero values fall back to defaults.
type Config struct {
	// NumWorkers is the per-campaign send concurrency.
	NumWorkers int
	// ContactBatchSize caps how many contacts one tick loads per campaign.
	ContactBatchSize int
	// SendTimeout bounds one delivery attempt.
	SendTimeout time.Duration
	// LockTTL bounds how long a crashed tick can hold a campaign lock.
	LockTTL time.Duration
	// MinHealthScore is the sender eligibility threshold.
	MinHealthScore int
	// DefaultTimezone applies to contacts whose location resolves to nothing.
	DefaultTimezone string
	// FromName is the display name on outbound mail.
	FromName string
}

func (c Config) withDefaults() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = 5
	}
	if c.ContactBatchSize <= 0 {
		c.ContactBatchSize = 100
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	if c.MinHealthScore <= 0 {
		c.MinHealthScore = sender.DefaultMinHealthScore
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "UTC"
	}
	return c
}

// Engine wires the tick collaborators together.
type Engine struct {
	cfg       Config
	store     store.Store
	calc      *schedule.Calculator
	eval      *schedule.Evaluator
	alloc     *sender.Allocator
	content   ContentProvider
	deliver   mailing.EmailSender
	simulated mailing.EmailSender
	health    mailing.HealthProvider

	// Lock backends; either may be nil, never both in production.
	redis *redis.Client
	db    *sql.DB

	now func() time.Time
}

// Options carries the external collaborators for New.
type Options struct {
	Store   store.Store
	Redis   *redis.Client
	DB      *sql.DB
	Content ContentProvider
	Deliver mailing.EmailSender
	Health  mailing.HealthProvider
}

// New builds an engine. Deliver may be nil when only test-mode ticks will
// run; Health may be nil to treat every sender as unscored.
func New(cfg Config, opts Options) *Engine {
	cfg = cfg.withDefaults()

	calc := &schedule.Calculator{DefaultTimezone: cfg.DefaultTimezone}
	caps := sender.NewCapTracker(opts.Redis, opts.Store.Sends)

	content := opts.Content
	if content == nil {
		content = mailing.NewPersonalizer()
	}
	health := opts.Health
	if health == nil {
		health = mailing.StaticHealthProvider{}
	}

	return &Engine{
		cfg:       cfg,
		store:     opts.Store,
		calc:      calc,
		eval:      &schedule.Evaluator{Calc: calc, Ledger: opts.Store.Sends},
		alloc:     &sender.Allocator{Caps: caps, Senders: opts.Store.Senders},
		content:   content,
		deliver:   opts.Deliver,
		simulated: mailing.SimulatedSender{},
		health:    health,
		redis:     opts.Redis,
		db:        opts.DB,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
