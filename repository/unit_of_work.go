package repository

import (
	"context"
	"errors"

	"fairdice/database"
	"fairdice/events"
	"fairdice/service"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	seedPairRepo     service.SeedPairRepository
	wagerRepo        service.WagerRepository
	gameConfigRepo   service.GameConfigRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return service.NewError(service.KindInternal, "transaction already started", nil)
	}

	tx, err := u.db.BeginTx(ctx, database.SettlementTxOptions)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.seedPairRepo = newSeedPairRepositoryWithTx(tx)
	u.wagerRepo = newWagerRepositoryWithTx(tx)
	u.gameConfigRepo = newGameConfigRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return service.NewError(service.KindInternal, "no transaction to commit", nil)
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return storeError("failed to commit transaction", err)
	}

	if err := u.transactionalBus.Flush(u.ctx); err != nil {
		log.WithError(err).Error("Failed to flush events after commit")
	}
	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.transactionalBus.Discard()
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return storeError("failed to rollback transaction", err)
	}
	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// SeedPairRepository returns the seed pair repository for this unit of work
func (u *unitOfWork) SeedPairRepository() service.SeedPairRepository {
	if u.seedPairRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.seedPairRepo
}

// WagerRepository returns the wager repository for this unit of work
func (u *unitOfWork) WagerRepository() service.WagerRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

// GameConfigRepository returns the game config repository for this unit of work
func (u *unitOfWork) GameConfigRepository() service.GameConfigRepository {
	if u.gameConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameConfigRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
