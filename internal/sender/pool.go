package sender

import (
	"log"
	"sort"

	"github.com/ignite/outreach-engine/internal/domain"
)

const (
	// DefaultHealthScore stands in for identities with no score on record,
	// below the default threshold: unknown health does not get to send
	// until a real score arrives or the operator forces the pool open.
	DefaultHealthScore = 40

	// DefaultMinHealthScore is the allocation threshold.
	DefaultMinHealthScore = 70
)

// Pool is the ordered set of identities eligible to send for one campaign
// during one tick. Ordering is by email, so rotation probes the same
// sequence on every process.
type Pool struct {
	Senders []domain.SenderIdentity
	// Forced marks a pool built with the unhealthy-sender override.
	Forced bool
}

// PoolOptions control eligibility filtering.
type PoolOptions struct {
	MinHealthScore int
	// ForceUnhealthy admits active, selected identities below the health
	// threshold. Logged per admitted identity.
	ForceUnhealthy bool
}

// BuildPool filters campaign identities down to the eligible set. scores maps
// sender email to its current health score; identities absent from the map
// get DefaultHealthScore.
func BuildPool(identities []domain.SenderIdentity, scores map[string]int, opts PoolOptions) Pool {
	threshold := opts.MinHealthScore
	if threshold == 0 {
		threshold = DefaultMinHealthScore
	}

	pool := Pool{Forced: opts.ForceUnhealthy}
	for _, id := range identities {
		if !id.IsActive || !id.IsSelected {
			continue
		}
		score, ok := scores[id.Email]
		if !ok {
			score = DefaultHealthScore
		}
		id.HealthScore = score

		if score < threshold {
			if !opts.ForceUnhealthy {
				continue
			}
			log.Printf("[SenderPool] forcing unhealthy sender %s into pool (score=%d threshold=%d)",
				id.Email, score, threshold)
		}
		pool.Senders = append(pool.Senders, id)
	}

	sort.Slice(pool.Senders, func(i, j int) bool {
		return pool.Senders[i].Email < pool.Senders[j].Email
	})
	return pool
}

// Size returns the number of eligible senders.
func (p Pool) Size() int { return len(p.Senders) }
