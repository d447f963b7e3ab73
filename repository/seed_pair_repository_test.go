package repository

import (
	"context"
	"testing"

	"fairdice/repository/testutil"
	"fairdice/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPairRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewSeedPairRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no active pair", func(t *testing.T) {
		pair, err := repo.GetActive(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, pair)
	})

	t.Run("create and get active", func(t *testing.T) {
		testDB.InsertAccount(t, 10, "100")
		pair := testutil.NewTestSeedPair(t, 10)

		require.NoError(t, repo.Create(ctx, pair))
		assert.NotZero(t, pair.ID)
		assert.False(t, pair.CreatedAt.IsZero())

		active, err := repo.GetActive(ctx, 10)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, pair.ID, active.ID)
		assert.Equal(t, pair.ServerSecret, active.ServerSecret)
		assert.Equal(t, pair.ServerSecretHash, active.ServerSecretHash)
		assert.Equal(t, int64(0), active.Nonce)
		assert.Nil(t, active.RevealedAt)
	})

	t.Run("only one active pair per account", func(t *testing.T) {
		testDB.InsertAccount(t, 20, "100")
		require.NoError(t, repo.Create(ctx, testutil.NewTestSeedPair(t, 20)))

		err := repo.Create(ctx, testutil.NewTestSeedPair(t, 20))
		assert.True(t, service.IsKind(err, service.KindConflict))
	})

	t.Run("unknown account", func(t *testing.T) {
		err := repo.Create(ctx, testutil.NewTestSeedPair(t, 987654))
		assert.True(t, service.IsKind(err, service.KindNotFound))
	})

	t.Run("advance nonce is conditional", func(t *testing.T) {
		testDB.InsertAccount(t, 30, "100")
		pair := testutil.NewTestSeedPair(t, 30)
		require.NoError(t, repo.Create(ctx, pair))

		require.NoError(t, repo.AdvanceNonce(ctx, pair.ID, 0))
		require.NoError(t, repo.AdvanceNonce(ctx, pair.ID, 1))

		// a stale read of nonce 1 must not advance again
		err := repo.AdvanceNonce(ctx, pair.ID, 1)
		assert.True(t, service.IsKind(err, service.KindConflict))

		current, err := repo.GetByID(ctx, pair.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), current.Nonce)
	})

	t.Run("retire reveals and freezes the pair", func(t *testing.T) {
		testDB.InsertAccount(t, 40, "100")
		pair := testutil.NewTestSeedPair(t, 40)
		require.NoError(t, repo.Create(ctx, pair))
		require.NoError(t, repo.AdvanceNonce(ctx, pair.ID, 0))

		retired, err := repo.Retire(ctx, pair.ID)
		require.NoError(t, err)
		assert.False(t, retired.Active)
		require.NotNil(t, retired.RevealedAt)
		assert.Equal(t, int64(1), retired.Nonce)

		active, err := repo.GetActive(ctx, 40)
		require.NoError(t, err)
		assert.Nil(t, active)

		// retired pairs cannot be advanced or retired again
		err = repo.AdvanceNonce(ctx, pair.ID, 1)
		assert.True(t, service.IsKind(err, service.KindConflict))
		_, err = repo.Retire(ctx, pair.ID)
		assert.True(t, service.IsKind(err, service.KindConflict))

		// a new active pair may now be created
		require.NoError(t, repo.Create(ctx, testutil.NewTestSeedPair(t, 40)))
	})

	t.Run("list revealed", func(t *testing.T) {
		testDB.InsertAccount(t, 50, "100")
		var retiredIDs []int64
		for i := 0; i < 3; i++ {
			pair := testutil.NewTestSeedPair(t, 50)
			require.NoError(t, repo.Create(ctx, pair))
			_, err := repo.Retire(ctx, pair.ID)
			require.NoError(t, err)
			retiredIDs = append(retiredIDs, pair.ID)
		}
		require.NoError(t, repo.Create(ctx, testutil.NewTestSeedPair(t, 50)))

		revealed, err := repo.ListRevealed(ctx, 50, 10)
		require.NoError(t, err)
		require.Len(t, revealed, 3)
		assert.Equal(t, retiredIDs[2], revealed[0].ID)
		for _, pair := range revealed {
			assert.False(t, pair.Active)
		}

		limited, err := repo.ListRevealed(ctx, 50, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}
