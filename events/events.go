package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBetSettled      EventType = "bet_settled"
	EventTypeSeedRotated     EventType = "seed_rotated"
	EventTypeSeedPairCreated EventType = "seed_pair_created"
	EventTypeAccountOpened   EventType = "account_opened"
)

// AllEventTypes lists every event type emitted by the services
var AllEventTypes = []EventType{
	EventTypeBetSettled,
	EventTypeSeedRotated,
	EventTypeSeedPairCreated,
	EventTypeAccountOpened,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetSettledEvent is emitted once a wager has been committed
type BetSettledEvent struct {
	AccountID      int64           `json:"account_id"`
	BetID          string          `json:"bet_id"`
	GameID         int64           `json:"game_id"`
	Stake          decimal.Decimal `json:"stake"`
	WinChance      decimal.Decimal `json:"win_chance"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	ResultNumber   decimal.Decimal `json:"result_number"`
	IsWin          bool            `json:"is_win"`
	Payout         decimal.Decimal `json:"payout"`
	NetChange      decimal.Decimal `json:"net_change"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
}

func (e BetSettledEvent) Type() EventType {
	return EventTypeBetSettled
}

// SeedRotatedEvent carries the revealed secret of the retired pair, if there was one
type SeedRotatedEvent struct {
	AccountID              int64   `json:"account_id"`
	PreviousSeedPairID     *int64  `json:"previous_seed_pair_id,omitempty"`
	PreviousServerSeed     *string `json:"previous_server_seed,omitempty"`
	PreviousServerSeedHash *string `json:"previous_server_seed_hash,omitempty"`
	PreviousNonce          *int64  `json:"previous_nonce,omitempty"`
	NewSeedPairID          int64   `json:"new_seed_pair_id"`
	NewServerSeedHash      string  `json:"new_server_seed_hash"`
	NewClientSeed          string  `json:"new_client_seed"`
}

func (e SeedRotatedEvent) Type() EventType {
	return EventTypeSeedRotated
}

// SeedPairCreatedEvent is emitted when an account gets its first pair lazily
type SeedPairCreatedEvent struct {
	AccountID      int64  `json:"account_id"`
	SeedPairID     int64  `json:"seed_pair_id"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
}

func (e SeedPairCreatedEvent) Type() EventType {
	return EventTypeSeedPairCreated
}

// AccountOpenedEvent represents a new account creation
type AccountOpenedEvent struct {
	AccountID      int64           `json:"account_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e AccountOpenedEvent) Type() EventType {
	return EventTypeAccountOpened
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus dispatches events to subscribers in-process. Handlers run in their own goroutines.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed event handler")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit delivers an event to all handlers of its type without waiting for them
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until the transaction commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits queued events. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing committed events")

	// Handlers outlive the transaction, so they must not inherit its context
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops queued events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithFields(log.Fields{
			"discardedEventCount": len(b.pending),
		}).Debug("Discarding events of rolled back transaction")
	}
	b.pending = nil
}
