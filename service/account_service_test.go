package service

import (
	"context"
	"errors"
	"testing"

	"fairdice/events"
	"fairdice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountService_OpenAccount_New(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)

	m.expectTransaction(true)
	m.accounts.On("Create", ctx, int64(42), decEq("1000")).Return(&models.Account{ID: 42, Balance: dec("1000.00")}, true, nil)
	m.bus.On("Publish", mock.MatchedBy(func(e events.AccountOpenedEvent) bool {
		return e.AccountID == 42 && e.InitialBalance.Equal(dec("1000"))
	})).Return()

	account, err := svc.OpenAccount(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, "1000.00", account.Balance.StringFixed(2))
	m.assertExpectations(t)
}

func TestAccountService_OpenAccount_Existing(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)

	m.expectTransaction(true)
	m.accounts.On("Create", ctx, int64(42), mock.Anything).Return(&models.Account{ID: 42, Balance: dec("12.34")}, false, nil)

	account, err := svc.OpenAccount(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, "12.34", account.Balance.StringFixed(2))
	m.bus.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestAccountService_OpenAccount_InvalidID(t *testing.T) {
	m := newServiceMocks()
	svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)

	_, err := svc.OpenAccount(context.Background(), 0)

	assert.True(t, IsKind(err, KindValidation))
	m.factory.AssertNotCalled(t, "Create")
}

func TestAccountService_GetAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)
		m.expectTransaction(true)
		m.accounts.On("GetByID", ctx, int64(42)).Return(&models.Account{ID: 42, Balance: dec("5")}, nil)

		account, err := svc.GetAccount(ctx, 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), account.ID)
	})

	t.Run("not found", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)
		m.expectTransaction(false)
		m.accounts.On("GetByID", ctx, int64(42)).Return(nil, nil)

		_, err := svc.GetAccount(ctx, 42)

		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("store failure keeps its kind", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewAccountService(m.factory, dec("1000.00"), testRetryPolicy)
		m.expectTransaction(false)
		m.accounts.On("GetByID", ctx, int64(42)).Return(nil, NewError(KindStoreUnavailable, "query timed out", errors.New("timeout")))

		_, err := svc.GetAccount(ctx, 42)

		assert.True(t, IsKind(err, KindStoreUnavailable))
	})
}

func TestGameService_ListGames(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewGameService(m.factory, testRetryPolicy)

	m.expectTransaction(true)
	m.games.On("List", ctx).Return([]*models.GameConfig{diceGame()}, nil)

	games, err := svc.ListGames(ctx)

	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Nvuti", games[0].Name)
	m.assertExpectations(t)
}
