package service

import (
	"context"
	"testing"
	"time"

	"fairdice/fairness"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settledWager(accountID int64, nonce int64) *models.Wager {
	result := fairness.Derive(testSecret, "client", nonce)
	return &models.Wager{
		ID:         uuid.New(),
		AccountID:  accountID,
		GameID:     1,
		SeedPairID: 11,
		Nonce:      nonce,
		Stake:      dec("10"),
		Outcome:    models.WagerOutcomeLoss,
		NetChange:  dec("-10"),
		Snapshot: models.WagerSnapshot{
			WinChance:      dec("50"),
			Multiplier:     dec("1.90"),
			ResultNumber:   result,
			ServerSeedHash: fairness.Commit(testSecret),
			ClientSeed:     "client",
			Nonce:          nonce,
		},
	}
}

func retiredPair(accountID int64) *models.SeedPair {
	pair := activePair(accountID, 3)
	pair.Active = false
	revealedAt := time.Now()
	pair.RevealedAt = &revealedAt
	return pair
}

func TestVerificationService_VerifyWager(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewVerificationService(m.factory, testRetryPolicy)

	wager := settledWager(42, 2)
	m.expectTransaction(true)
	m.wagers.On("GetByID", ctx, wager.ID).Return(wager, nil)
	m.seeds.On("GetByID", ctx, int64(11)).Return(retiredPair(42), nil)

	v, err := svc.VerifyWager(ctx, 42, wager.ID)

	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.True(t, v.CommitmentMatches)
	assert.True(t, v.ResultMatches)
	assert.True(t, v.RecordMatches)
	assert.Equal(t, testSecret, v.ServerSeed)
	assert.Equal(t, "60.59", v.RecomputedResult.StringFixed(2))
	m.assertExpectations(t)
}

func TestVerificationService_VerifyWager_TamperedRecord(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewVerificationService(m.factory, testRetryPolicy)

	wager := settledWager(42, 2)
	wager.Snapshot.ResultNumber = dec("1.00")
	m.expectTransaction(true)
	m.wagers.On("GetByID", ctx, wager.ID).Return(wager, nil)
	m.seeds.On("GetByID", ctx, int64(11)).Return(retiredPair(42), nil)

	v, err := svc.VerifyWager(ctx, 42, wager.ID)

	require.NoError(t, err)
	assert.True(t, v.CommitmentMatches)
	assert.False(t, v.ResultMatches)
	assert.False(t, v.Verified)
}

func TestVerificationService_VerifyWager_SnapshotDisagreesWithRecord(t *testing.T) {
	ctx := context.Background()

	// Each edit keeps the snapshot internally consistent: the recorded result is re-derived
	// from the edited inputs, so only the cross-check against the row and pair catches it.
	tests := []struct {
		name string
		edit func(w *models.Wager)
	}{
		{"snapshot nonce differs from row", func(w *models.Wager) {
			w.Snapshot.Nonce = 1
		}},
		{"client seed differs from pair", func(w *models.Wager) {
			w.Snapshot.ClientSeed = "edited"
		}},
		{"nonce beyond the pair's final nonce", func(w *models.Wager) {
			w.Nonce = 5
			w.Snapshot.Nonce = 5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newServiceMocks()
			svc := NewVerificationService(m.factory, testRetryPolicy)

			wager := settledWager(42, 2)
			tt.edit(wager)
			wager.Snapshot.ResultNumber = fairness.Derive(testSecret, wager.Snapshot.ClientSeed, wager.Snapshot.Nonce)

			m.expectTransaction(true)
			m.wagers.On("GetByID", ctx, wager.ID).Return(wager, nil)
			m.seeds.On("GetByID", ctx, int64(11)).Return(retiredPair(42), nil)

			v, err := svc.VerifyWager(ctx, 42, wager.ID)

			require.NoError(t, err)
			assert.True(t, v.CommitmentMatches)
			assert.True(t, v.ResultMatches)
			assert.False(t, v.RecordMatches)
			assert.False(t, v.Verified)
		})
	}
}

func TestVerificationService_VerifyWager_ActivePair(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewVerificationService(m.factory, testRetryPolicy)

	wager := settledWager(42, 0)
	m.expectTransaction(true)
	m.wagers.On("GetByID", ctx, wager.ID).Return(wager, nil)
	m.seeds.On("GetByID", ctx, int64(11)).Return(activePair(42, 1), nil)

	v, err := svc.VerifyWager(ctx, 42, wager.ID)

	assert.Nil(t, v)
	assert.True(t, IsKind(err, KindValidation))
}

func TestVerificationService_VerifyWager_OtherAccount(t *testing.T) {
	ctx := context.Background()
	m := newServiceMocks()
	svc := NewVerificationService(m.factory, testRetryPolicy)

	wager := settledWager(7, 0)
	m.expectTransaction(false)
	m.wagers.On("GetByID", ctx, wager.ID).Return(wager, nil)

	_, err := svc.VerifyWager(ctx, 42, wager.ID)

	assert.True(t, IsKind(err, KindNotFound))
	m.assertExpectations(t)
}
