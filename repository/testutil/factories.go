package testutil

import (
	"testing"

	"fairdice/fairness"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// NewTestSeedPair builds an active, unsaved seed pair with fresh random material
func NewTestSeedPair(t *testing.T, accountID int64) *models.SeedPair {
	t.Helper()
	secret, err := fairness.GenerateServerSecret()
	require.NoError(t, err)
	clientSeed, err := fairness.GenerateClientSeed()
	require.NoError(t, err)

	return &models.SeedPair{
		AccountID:        accountID,
		ServerSecret:     secret,
		ServerSecretHash: fairness.Commit(secret),
		ClientSeed:       clientSeed,
		Active:           true,
	}
}

// NewTestWager builds an unsaved wager at 50% win chance for the given pair and nonce
func NewTestWager(pair *models.SeedPair, gameID int64, nonce int64, stake string) *models.Wager {
	amount := decimal.RequireFromString(stake)
	winChance := decimal.NewFromInt(50)
	multiplier := fairness.Multiplier(decimal.NewFromInt(5), winChance)
	result := fairness.Derive(pair.ServerSecret, pair.ClientSeed, nonce)

	wager := &models.Wager{
		ID:         uuid.New(),
		AccountID:  pair.AccountID,
		GameID:     gameID,
		SeedPairID: pair.ID,
		Nonce:      nonce,
		Stake:      amount,
		Outcome:    models.WagerOutcomeLoss,
		NetChange:  amount.Neg(),
		Snapshot: models.WagerSnapshot{
			WinChance:      winChance,
			Multiplier:     multiplier,
			ResultNumber:   result,
			ServerSeedHash: pair.ServerSecretHash,
			ClientSeed:     pair.ClientSeed,
			Nonce:          nonce,
			Payout:         decimal.Zero,
		},
	}
	if fairness.IsWin(result, winChance) {
		payout := fairness.Payout(amount, multiplier)
		wager.Outcome = models.WagerOutcomeWin
		wager.NetChange = payout.Sub(amount)
		wager.Snapshot.IsWin = true
		wager.Snapshot.Payout = payout
	}
	return wager
}
