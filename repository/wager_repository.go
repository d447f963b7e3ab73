package repository

import (
	"context"
	"errors"

	"fairdice/database"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WagerRepository implements the WagerRepository interface. Wagers are insert-only.
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, account_id, game_id, seed_pair_id, nonce, stake, outcome, net_change, snapshot, created_at`

func scanWager(row pgx.Row) (*models.Wager, error) {
	var wager models.Wager
	err := row.Scan(
		&wager.ID,
		&wager.AccountID,
		&wager.GameID,
		&wager.SeedPairID,
		&wager.Nonce,
		&wager.Stake,
		&wager.Outcome,
		&wager.NetChange,
		&wager.Snapshot,
		&wager.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}

// Create inserts a settled wager and fills in CreatedAt
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	query := `
		INSERT INTO wagers (id, account_id, game_id, seed_pair_id, nonce, stake, outcome, net_change, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query,
		wager.ID,
		wager.AccountID,
		wager.GameID,
		wager.SeedPairID,
		wager.Nonce,
		wager.Stake,
		string(wager.Outcome),
		wager.NetChange,
		wager.Snapshot,
	).Scan(&wager.CreatedAt)
	if err != nil {
		return storeError("failed to create wager", err)
	}
	return nil
}

// GetByID retrieves a wager by its public id
func (r *WagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("failed to get wager", err)
	}
	return wager, nil
}

// ListByAccount returns an account's wagers, newest first
func (r *WagerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE account_id = $1
		ORDER BY created_at DESC, nonce DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, storeError("failed to list wagers", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, storeError("failed to scan wager", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate wagers", err)
	}
	return wagers, nil
}
