package service

import (
	"strings"
	"time"

	"fairdice/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// testRetryPolicy leaves the caller's context untouched so mocks can match it exactly
var testRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

var testSecret = strings.Repeat("a", 64)

type serviceMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	accounts *MockAccountRepository
	seeds    *MockSeedPairRepository
	wagers   *MockWagerRepository
	games    *MockGameConfigRepository
	bus      *MockEventPublisher
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		accounts: new(MockAccountRepository),
		seeds:    new(MockSeedPairRepository),
		wagers:   new(MockWagerRepository),
		games:    new(MockGameConfigRepository),
		bus:      new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.accounts, m.seeds, m.wagers, m.games, m.bus)
	return m
}

// expectTransaction sets up a unit of work that begins and rolls back, committing if commit is set
func (m *serviceMocks) expectTransaction(commit bool) {
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	if commit {
		m.uow.On("Commit").Return(nil)
	}
	m.uow.On("Rollback").Return(nil)
}

func (m *serviceMocks) assertExpectations(t mock.TestingT) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.accounts.AssertExpectations(t)
	m.seeds.AssertExpectations(t)
	m.wagers.AssertExpectations(t)
	m.games.AssertExpectations(t)
	m.bus.AssertExpectations(t)
}

func diceGame() *models.GameConfig {
	return &models.GameConfig{
		ID:        1,
		Name:      "Nvuti",
		GameType:  models.GameTypeDice,
		HouseEdge: decimal.NewFromInt(5),
		MinBet:    decimal.NewFromInt(1),
		MaxBet:    decimal.NewFromInt(1000),
	}
}

func activePair(accountID int64, nonce int64) *models.SeedPair {
	return &models.SeedPair{
		ID:               11,
		AccountID:        accountID,
		ServerSecret:     testSecret,
		ServerSecretHash: "ffe054fe7ae0cb6dc65c3af9b61d5209f439851db43d0ba5997337df154668eb",
		ClientSeed:       "client",
		Nonce:            nonce,
		Active:           true,
		CreatedAt:        time.Now(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value rather than representation
func decEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}
