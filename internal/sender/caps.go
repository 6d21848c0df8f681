// Package sender implements the sending-identity side of a tick: pool
// construction from health-filtered identities, daily cap accounting, and
// deterministic contact-to-sender allocation.
package sender

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Daily cap keys expire after 25 hours so a counter never leaks into the
// day after next, but survives clock skew around midnight.
const dailyCapTTLSeconds = 90000

// Lua script for an atomic check-and-increment against one daily counter.
// GET then INCR in separate commands races under concurrent workers; the
// script makes reserve-or-deny a single Redis round trip.
const capReserveLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = tonumber(redis.call("GET", key) or "0")
if current + 1 > limit then
    return {0, current}
end

local newVal = redis.call("INCRBY", key, 1)
if newVal == 1 then
    redis.call("EXPIRE", key, ttl)
end
return {1, newVal}
`

// Releasing a reservation decrements but never below zero, so a release
// after key expiry cannot push the next day's counter negative.
const capReleaseLuaScript = `
local v = tonumber(redis.call("GET", KEYS[1]) or "0")
if v > 0 then
    redis.call("DECRBY", KEYS[1], 1)
end
return v
`

// SendCounter is the ledger-backed fallback when Redis is not configured:
// today's committed sends, counted over the UTC day.
type SendCounter interface {
	CountSenderSentToday(ctx context.Context, senderID string, day time.Time) (int, error)
	CountCampaignSentToday(ctx context.Context, campaignID string, day time.Time) (int, error)
	// CountCampaignStartsToday counts committed step-1 sends only: the
	// contacts newly engaged today.
	CountCampaignStartsToday(ctx context.Context, campaignID string, day time.Time) (int, error)
}

// CapTracker enforces per-sender and per-campaign daily volume caps.
//
// With Redis it reserves atomically before each send and releases on send
// failure, so a failed attempt does not burn cap. Without Redis it falls
// back to counting committed sends in the ledger; that path is
// read-then-check and is only safe because ticks hold the per-campaign
// lock, serializing all cap decisions for a campaign.
type CapTracker struct {
	redis         *redis.Client
	counter       SendCounter
	reserveScript *redis.Script
	releaseScript *redis.Script
}

// NewCapTracker builds a tracker. redisClient may be nil; counter must not be.
func NewCapTracker(redisClient *redis.Client, counter SendCounter) *CapTracker {
	return &CapTracker{
		redis:         redisClient,
		counter:       counter,
		reserveScript: redis.NewScript(capReserveLuaScript),
		releaseScript: redis.NewScript(capReleaseLuaScript),
	}
}

func senderCapKey(senderID string, day time.Time) string {
	return fmt.Sprintf("sendcap:sender:%s:day:%s", senderID, day.UTC().Format("2006-01-02"))
}

func campaignCapKey(campaignID string, day time.Time) string {
	return fmt.Sprintf("sendcap:campaign:%s:day:%s", campaignID, day.UTC().Format("2006-01-02"))
}

func campaignStartKey(campaignID string, day time.Time) string {
	return fmt.Sprintf("sendcap:starts:%s:day:%s", campaignID, day.UTC().Format("2006-01-02"))
}

// ReserveSender claims one send against the sender's daily limit. Returns
// false when the sender is at cap.
func (t *CapTracker) ReserveSender(ctx context.Context, senderID string, limit int, now time.Time) (bool, error) {
	if t.redis == nil {
		used, err := t.counter.CountSenderSentToday(ctx, senderID, now)
		if err != nil {
			return false, fmt.Errorf("count sender %s sends: %w", senderID, err)
		}
		return used < limit, nil
	}
	return t.reserve(ctx, senderCapKey(senderID, now), limit)
}

// ReserveCampaign claims one send against the campaign's daily sequence
// limit, which covers every step.
func (t *CapTracker) ReserveCampaign(ctx context.Context, campaignID string, limit int, now time.Time) (bool, error) {
	if t.redis == nil {
		used, err := t.counter.CountCampaignSentToday(ctx, campaignID, now)
		if err != nil {
			return false, fmt.Errorf("count campaign %s sends: %w", campaignID, err)
		}
		return used < limit, nil
	}
	return t.reserve(ctx, campaignCapKey(campaignID, now), limit)
}

// ReserveCampaignStart claims one send against the campaign's daily
// contacts limit; step-1 sends only, since those engage a new contact.
func (t *CapTracker) ReserveCampaignStart(ctx context.Context, campaignID string, limit int, now time.Time) (bool, error) {
	if t.redis == nil {
		used, err := t.counter.CountCampaignStartsToday(ctx, campaignID, now)
		if err != nil {
			return false, fmt.Errorf("count campaign %s starts: %w", campaignID, err)
		}
		return used < limit, nil
	}
	return t.reserve(ctx, campaignStartKey(campaignID, now), limit)
}

// ReleaseSender returns a reservation after a failed send attempt. Ledger
// fallback mode counts only committed sends, so there is nothing to undo.
func (t *CapTracker) ReleaseSender(ctx context.Context, senderID string, now time.Time) {
	if t.redis == nil {
		return
	}
	if err := t.releaseScript.Run(ctx, t.redis, []string{senderCapKey(senderID, now)}).Err(); err != nil {
		log.Printf("[CapTracker] release sender %s failed: %v", senderID, err)
	}
}

// ReleaseCampaign returns a campaign reservation after a failed send attempt.
func (t *CapTracker) ReleaseCampaign(ctx context.Context, campaignID string, now time.Time) {
	if t.redis == nil {
		return
	}
	if err := t.releaseScript.Run(ctx, t.redis, []string{campaignCapKey(campaignID, now)}).Err(); err != nil {
		log.Printf("[CapTracker] release campaign %s failed: %v", campaignID, err)
	}
}

// ReleaseCampaignStart returns a contacts-limit reservation.
func (t *CapTracker) ReleaseCampaignStart(ctx context.Context, campaignID string, now time.Time) {
	if t.redis == nil {
		return
	}
	if err := t.releaseScript.Run(ctx, t.redis, []string{campaignStartKey(campaignID, now)}).Err(); err != nil {
		log.Printf("[CapTracker] release campaign %s start failed: %v", campaignID, err)
	}
}

func (t *CapTracker) reserve(ctx context.Context, key string, limit int) (bool, error) {
	result, err := t.reserveScript.Run(ctx, t.redis, []string{key}, limit, dailyCapTTLSeconds).Slice()
	if err != nil {
		return false, fmt.Errorf("cap reserve %s: %w", key, err)
	}
	allowed, ok := result[0].(int64)
	if !ok {
		return false, fmt.Errorf("cap reserve %s: unexpected script result %v", key, result)
	}
	return allowed == 1, nil
}

// Usage reports current daily consumption for a sender, for diagnostics.
func (t *CapTracker) Usage(ctx context.Context, senderID string, now time.Time) (int, error) {
	if t.redis == nil {
		return t.counter.CountSenderSentToday(ctx, senderID, now)
	}
	n, err := t.redis.Get(ctx, senderCapKey(senderID, now)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
