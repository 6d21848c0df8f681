// Package domain holds the core types shared across the outreach engine:
// campaigns and their sequence steps, contacts, sending identities, and the
// send-record ledger that provides the idempotency boundary. Types here have
// no behavior beyond simple derived accessors; all scheduling and allocation
// logic lives in the schedule and sender packages.
package domain
