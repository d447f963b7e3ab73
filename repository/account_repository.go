package repository

import (
	"context"
	"errors"
	"fmt"

	"fairdice/database"
	"fairdice/models"
	"fairdice/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `id, balance, created_at, updated_at`

// GetByID retrieves an account by id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetForUpdate retrieves an account and locks its row
func (r *AccountRepository) GetForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepository) get(ctx context.Context, query string, id int64) (*models.Account, error) {
	var account models.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("failed to get account", err)
	}
	return &account, nil
}

// Create inserts the account unless it already exists. The existing row is returned
// unchanged in that case.
func (r *AccountRepository) Create(ctx context.Context, id int64, initialBalance decimal.Decimal) (*models.Account, bool, error) {
	query := `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + accountColumns

	var account models.Account
	err := r.q.QueryRow(ctx, query, id, initialBalance).Scan(
		&account.ID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, service.NewError(service.KindConflict, fmt.Sprintf("account %d vanished during creation", id), nil)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storeError("failed to create account", err)
	}
	return &account, true, nil
}

// AdjustBalance adds delta to the balance and returns the new balance
func (r *AccountRepository) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return decimal.Zero, getErr
		}
		if exists == nil {
			return decimal.Zero, service.NewError(service.KindNotFound, fmt.Sprintf("account %d not found", id), nil)
		}
		return decimal.Zero, service.NewError(service.KindInsufficientFunds, fmt.Sprintf("balance of account %d cannot go below zero", id), nil)
	}
	if err != nil {
		return decimal.Zero, storeError("failed to adjust balance", err)
	}
	return balance, nil
}
