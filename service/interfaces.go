package service

import (
	"context"
	"time"

	"fairdice/events"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetForUpdate retrieves an account and locks its row until the transaction ends
	GetForUpdate(ctx context.Context, id int64) (*models.Account, error)

	// Create inserts an account if it does not exist yet and reports whether it was created
	Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*models.Account, bool, error)

	// AdjustBalance adds delta to the balance and returns the new balance.
	// Fails if the result would be negative.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// SeedPairRepository defines the interface for seed pair data access
type SeedPairRepository interface {
	// GetActive returns the account's active pair, or nil if there is none
	GetActive(ctx context.Context, accountID int64) (*models.SeedPair, error)

	// GetActiveForUpdate returns the active pair and locks its row until the transaction ends
	GetActiveForUpdate(ctx context.Context, accountID int64) (*models.SeedPair, error)

	// GetByID retrieves a pair by id, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.SeedPair, error)

	// Create inserts a new pair and fills in its ID and CreatedAt
	Create(ctx context.Context, pair *models.SeedPair) error

	// AdvanceNonce sets the pair's nonce to expected+1, only if it is still active and its
	// nonce is still expected
	AdvanceNonce(ctx context.Context, id int64, expected int64) error

	// Retire deactivates an active pair, stamps revealed_at and returns the retired pair
	Retire(ctx context.Context, id int64) (*models.SeedPair, error)

	// ListRevealed returns retired pairs for an account, most recently revealed first
	ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.SeedPair, error)
}

// WagerRepository defines the interface for wager records. Records are write-once.
type WagerRepository interface {
	// Create inserts a settled wager
	Create(ctx context.Context, wager *models.Wager) error

	// GetByID retrieves a wager by its public id, returning nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error)

	// ListByAccount returns an account's wagers, newest first
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error)
}

// GameConfigRepository defines the interface for game configuration lookups
type GameConfigRepository interface {
	GetByID(ctx context.Context, id int64) (*models.GameConfig, error)
	GetByType(ctx context.Context, gameType string) (*models.GameConfig, error)
	List(ctx context.Context) ([]*models.GameConfig, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	SeedPairRepository() SeedPairRepository
	WagerRepository() WagerRepository
	GameConfigRepository() GameConfigRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// AccountLocker serializes work on a single account. The returned function releases the lock.
type AccountLocker interface {
	Lock(ctx context.Context, accountID int64) (func(), error)
}

// Metrics receives settlement telemetry
type Metrics interface {
	RecordWagerSettled(ctx context.Context, outcome *models.WagerOutcome, elapsed time.Duration)
	RecordSeedRotated(ctx context.Context)
	RecordConflict(ctx context.Context, operation string)
}

// SeedService defines the interface for the seed pair lifecycle
type SeedService interface {
	// GetOrCreateActive returns the active pair, creating one if the account has none
	GetOrCreateActive(ctx context.Context, accountID int64) (*models.SeedPair, error)

	// PeekActive returns the public view of the active pair, creating one if needed
	PeekActive(ctx context.Context, accountID int64) (*models.SeedInfo, error)

	// Rotate retires the active pair, revealing its secret, and activates a new one.
	// An empty newClientSeed generates a random client seed.
	Rotate(ctx context.Context, accountID int64, newClientSeed *string) (*models.SeedRotation, error)

	// ReserveNextNonce consumes the next nonce of the active pair inside uow
	ReserveNextNonce(ctx context.Context, uow UnitOfWork, accountID int64) (*models.SeedReservation, error)

	// ListRevealed returns the account's retired pairs with their secrets
	ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.RevealedSeed, error)
}

// WagerService defines the interface for wager settlement
type WagerService interface {
	// Settle settles a wager against a specific game
	Settle(ctx context.Context, accountID, gameID int64, stake, winChance decimal.Decimal) (*models.WagerOutcome, error)

	// PlaceWager settles a wager against the dice game
	PlaceWager(ctx context.Context, accountID int64, winChance, stake decimal.Decimal) (*models.WagerOutcome, error)

	// ListWagers returns the account's settled wagers, newest first
	ListWagers(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error)
}

// VerificationService defines the interface for replaying settled wagers
type VerificationService interface {
	// VerifyWager recomputes a wager from its revealed seed pair
	VerifyWager(ctx context.Context, accountID int64, betID uuid.UUID) (*models.WagerVerification, error)
}

// AccountService defines the interface for account operations
type AccountService interface {
	// OpenAccount creates the account with the starting balance, or returns the existing one
	OpenAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// GetAccount returns an existing account
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)
}

// GameService defines the interface for the game catalogue
type GameService interface {
	ListGames(ctx context.Context) ([]*models.GameConfig, error)
}
