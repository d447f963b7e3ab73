package repository

import (
	"context"
	"errors"
	"fmt"

	"fairdice/database"
	"fairdice/models"
	"fairdice/service"

	"github.com/jackc/pgx/v5"
)

// SeedPairRepository implements the SeedPairRepository interface
type SeedPairRepository struct {
	q queryable
}

// NewSeedPairRepository creates a new seed pair repository
func NewSeedPairRepository(db *database.DB) *SeedPairRepository {
	return &SeedPairRepository{q: db.Pool}
}

// newSeedPairRepositoryWithTx creates a new seed pair repository with a transaction
func newSeedPairRepositoryWithTx(tx queryable) *SeedPairRepository {
	return &SeedPairRepository{q: tx}
}

const seedPairColumns = `id, account_id, server_secret, server_secret_hash, client_seed, nonce, active, created_at, revealed_at`

func scanSeedPair(row pgx.Row) (*models.SeedPair, error) {
	var pair models.SeedPair
	err := row.Scan(
		&pair.ID,
		&pair.AccountID,
		&pair.ServerSecret,
		&pair.ServerSecretHash,
		&pair.ClientSeed,
		&pair.Nonce,
		&pair.Active,
		&pair.CreatedAt,
		&pair.RevealedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

func (r *SeedPairRepository) getOne(ctx context.Context, op, query string, arg int64) (*models.SeedPair, error) {
	pair, err := scanSeedPair(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, err)
	}
	return pair, nil
}

// GetActive returns the account's active pair
func (r *SeedPairRepository) GetActive(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	query := `SELECT ` + seedPairColumns + ` FROM seed_pairs WHERE account_id = $1 AND active`
	return r.getOne(ctx, "failed to get active seed pair", query, accountID)
}

// GetActiveForUpdate returns the account's active pair and locks it
func (r *SeedPairRepository) GetActiveForUpdate(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	query := `SELECT ` + seedPairColumns + ` FROM seed_pairs WHERE account_id = $1 AND active FOR UPDATE`
	return r.getOne(ctx, "failed to lock active seed pair", query, accountID)
}

// GetByID retrieves a pair by id
func (r *SeedPairRepository) GetByID(ctx context.Context, id int64) (*models.SeedPair, error) {
	query := `SELECT ` + seedPairColumns + ` FROM seed_pairs WHERE id = $1`
	return r.getOne(ctx, "failed to get seed pair", query, id)
}

// Create inserts a new pair
func (r *SeedPairRepository) Create(ctx context.Context, pair *models.SeedPair) error {
	query := `
		INSERT INTO seed_pairs (account_id, server_secret, server_secret_hash, client_seed, nonce, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query,
		pair.AccountID,
		pair.ServerSecret,
		pair.ServerSecretHash,
		pair.ClientSeed,
		pair.Nonce,
		pair.Active,
	).Scan(&pair.ID, &pair.CreatedAt)
	if err != nil {
		return storeError("failed to create seed pair", err)
	}
	return nil
}

// AdvanceNonce moves the nonce from expected to expected+1
func (r *SeedPairRepository) AdvanceNonce(ctx context.Context, id int64, expected int64) error {
	query := `
		UPDATE seed_pairs
		SET nonce = nonce + 1
		WHERE id = $1 AND nonce = $2 AND active`

	result, err := r.q.Exec(ctx, query, id, expected)
	if err != nil {
		return storeError("failed to advance nonce", err)
	}
	if result.RowsAffected() == 0 {
		return service.NewError(service.KindConflict, fmt.Sprintf("nonce %d of seed pair %d already consumed or pair retired", expected, id), nil)
	}
	return nil
}

// Retire deactivates an active pair and stamps revealed_at
func (r *SeedPairRepository) Retire(ctx context.Context, id int64) (*models.SeedPair, error) {
	query := `
		UPDATE seed_pairs
		SET active = FALSE, revealed_at = NOW()
		WHERE id = $1 AND active
		RETURNING ` + seedPairColumns

	pair, err := scanSeedPair(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.NewError(service.KindConflict, fmt.Sprintf("seed pair %d is not active", id), nil)
	}
	if err != nil {
		return nil, storeError("failed to retire seed pair", err)
	}
	return pair, nil
}

// ListRevealed returns retired pairs, most recently revealed first
func (r *SeedPairRepository) ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.SeedPair, error) {
	query := `
		SELECT ` + seedPairColumns + `
		FROM seed_pairs
		WHERE account_id = $1 AND NOT active
		ORDER BY revealed_at DESC, id DESC
		LIMIT $2`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, storeError("failed to list revealed seed pairs", err)
	}
	defer rows.Close()

	var pairs []*models.SeedPair
	for rows.Next() {
		pair, err := scanSeedPair(rows)
		if err != nil {
			return nil, storeError("failed to scan seed pair", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate seed pairs", err)
	}
	return pairs, nil
}
