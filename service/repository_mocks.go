package service

import (
	"context"

	"fairdice/events"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*models.Account, bool, error) {
	args := m.Called(ctx, id, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockSeedPairRepository is a mock implementation of SeedPairRepository
type MockSeedPairRepository struct {
	mock.Mock
}

func (m *MockSeedPairRepository) GetActive(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) GetActiveForUpdate(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) GetByID(ctx context.Context, id int64) (*models.SeedPair, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) Create(ctx context.Context, pair *models.SeedPair) error {
	args := m.Called(ctx, pair)
	return args.Error(0)
}

func (m *MockSeedPairRepository) AdvanceNonce(ctx context.Context, id int64, expected int64) error {
	args := m.Called(ctx, id, expected)
	return args.Error(0)
}

func (m *MockSeedPairRepository) Retire(ctx context.Context, id int64) (*models.SeedPair, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedPair), args.Error(1)
}

func (m *MockSeedPairRepository) ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.SeedPair, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SeedPair), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

// MockGameConfigRepository is a mock implementation of GameConfigRepository
type MockGameConfigRepository struct {
	mock.Mock
}

func (m *MockGameConfigRepository) GetByID(ctx context.Context, id int64) (*models.GameConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameConfig), args.Error(1)
}

func (m *MockGameConfigRepository) GetByType(ctx context.Context, gameType string) (*models.GameConfig, error) {
	args := m.Called(ctx, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameConfig), args.Error(1)
}

func (m *MockGameConfigRepository) List(ctx context.Context) ([]*models.GameConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameConfig), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters return the
// mocks installed with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	accountRepo    AccountRepository
	seedPairRepo   SeedPairRepository
	wagerRepo      WagerRepository
	gameConfigRepo GameConfigRepository
	eventBus       EventPublisher
}

// SetRepositories installs the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(accounts AccountRepository, seeds SeedPairRepository, wagers WagerRepository, games GameConfigRepository, bus EventPublisher) {
	m.accountRepo = accounts
	m.seedPairRepo = seeds
	m.wagerRepo = wagers
	m.gameConfigRepo = games
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) SeedPairRepository() SeedPairRepository {
	return m.seedPairRepo
}

func (m *MockUnitOfWork) WagerRepository() WagerRepository {
	return m.wagerRepo
}

func (m *MockUnitOfWork) GameConfigRepository() GameConfigRepository {
	return m.gameConfigRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
