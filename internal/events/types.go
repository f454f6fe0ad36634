// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Mint lifecycle events
	AttemptStarted  EventType = "mint.attempt.started"
	AttemptFinished EventType = "mint.attempt.finished"
	BatchFinished   EventType = "mint.batch.finished"

	// State events
	StateRefreshed EventType = "state.refreshed"
	BalanceChanged EventType = "balance.changed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// NewBase stamps an event header with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// AttemptStartedEvent is emitted before a mint attempt builds its transaction.
type AttemptStartedEvent struct {
	BaseEvent
	BatchID string
	Index   int
	Total   int
	Wallet  string
}

// AttemptFinishedEvent is emitted once an attempt has a final outcome.
type AttemptFinishedEvent struct {
	BaseEvent
	BatchID   string
	Index     int
	Total     int
	Wallet    string
	Success   bool
	Signature string
	Asset     string
	Error     string
	Duration  time.Duration
}

// BatchFinishedEvent is emitted when a batch loop exits for any reason.
type BatchFinishedEvent struct {
	BaseEvent
	BatchID   string
	Requested int
	Minted    int
	Attempts  int
	Aborted   bool
}

// StateRefreshedEvent is emitted after candy machine state was fetched.
type StateRefreshedEvent struct {
	BaseEvent
	CandyMachine   string
	ItemsAvailable uint64
	ItemsRedeemed  uint64
}

// BalanceChangedEvent is emitted when a wallet balance was re-read.
type BalanceChangedEvent struct {
	BaseEvent
	WalletAddress string
	TokenMint     string
	OldBalance    uint64
	NewBalance    uint64
}
