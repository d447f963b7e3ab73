package service

import (
	"context"

	"fairdice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockSeedService is a mock implementation of SeedService
type MockSeedService struct {
	mock.Mock
}

func (m *MockSeedService) GetOrCreateActive(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedPair), args.Error(1)
}

func (m *MockSeedService) PeekActive(ctx context.Context, accountID int64) (*models.SeedInfo, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedInfo), args.Error(1)
}

func (m *MockSeedService) Rotate(ctx context.Context, accountID int64, newClientSeed *string) (*models.SeedRotation, error) {
	args := m.Called(ctx, accountID, newClientSeed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedRotation), args.Error(1)
}

func (m *MockSeedService) ReserveNextNonce(ctx context.Context, uow UnitOfWork, accountID int64) (*models.SeedReservation, error) {
	args := m.Called(ctx, uow, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeedReservation), args.Error(1)
}

func (m *MockSeedService) ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.RevealedSeed, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RevealedSeed), args.Error(1)
}

// MockWagerService is a mock implementation of WagerService
type MockWagerService struct {
	mock.Mock
}

func (m *MockWagerService) Settle(ctx context.Context, accountID, gameID int64, stake, winChance decimal.Decimal) (*models.WagerOutcome, error) {
	args := m.Called(ctx, accountID, gameID, stake, winChance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WagerOutcome), args.Error(1)
}

func (m *MockWagerService) PlaceWager(ctx context.Context, accountID int64, winChance, stake decimal.Decimal) (*models.WagerOutcome, error) {
	args := m.Called(ctx, accountID, winChance, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WagerOutcome), args.Error(1)
}

func (m *MockWagerService) ListWagers(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

// MockVerificationService is a mock implementation of VerificationService
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) VerifyWager(ctx context.Context, accountID int64, betID uuid.UUID) (*models.WagerVerification, error) {
	args := m.Called(ctx, accountID, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WagerVerification), args.Error(1)
}

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) OpenAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// MockGameService is a mock implementation of GameService
type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) ListGames(ctx context.Context) ([]*models.GameConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameConfig), args.Error(1)
}
