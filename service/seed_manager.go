package service

import (
	"context"
	"fmt"
	"strings"

	"fairdice/events"
	"fairdice/fairness"
	"fairdice/models"

	log "github.com/sirupsen/logrus"
)

const maxClientSeedLength = 64

// seedManager implements SeedService. It is the only writer of seed pairs.
type seedManager struct {
	uowFactory UnitOfWorkFactory
	locker     AccountLocker
	retry      RetryPolicy
	metrics    Metrics
}

// NewSeedManager creates a new seed service
func NewSeedManager(uowFactory UnitOfWorkFactory, locker AccountLocker, retry RetryPolicy, metrics Metrics) SeedService {
	return &seedManager{
		uowFactory: uowFactory,
		locker:     locker,
		retry:      retry,
		metrics:    metricsOrNoop(metrics),
	}
}

// GetOrCreateActive returns the active pair, creating one if the account has none
func (m *seedManager) GetOrCreateActive(ctx context.Context, accountID int64) (*models.SeedPair, error) {
	var pair *models.SeedPair
	err := atomically(ctx, m.uowFactory, m.locker, m.retry, m.metrics, accountID, "get_or_create_seed", func(ctx context.Context, uow UnitOfWork) error {
		var err error
		pair, err = m.activeOrCreate(ctx, uow, accountID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// PeekActive returns the public view of the active pair, creating one if needed
func (m *seedManager) PeekActive(ctx context.Context, accountID int64) (*models.SeedInfo, error) {
	pair, err := m.GetOrCreateActive(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return pair.Info(), nil
}

// Rotate retires the active pair, revealing its secret, and activates a new one
func (m *seedManager) Rotate(ctx context.Context, accountID int64, newClientSeed *string) (*models.SeedRotation, error) {
	clientSeed := ""
	if newClientSeed != nil {
		clientSeed = strings.TrimSpace(*newClientSeed)
	}
	if len(clientSeed) > maxClientSeedLength {
		return nil, NewError(KindValidation, fmt.Sprintf("client seed must be at most %d characters", maxClientSeedLength), nil)
	}

	var rotation *models.SeedRotation
	err := atomically(ctx, m.uowFactory, m.locker, m.retry, m.metrics, accountID, "rotate_seed", func(ctx context.Context, uow UnitOfWork) error {
		repo := uow.SeedPairRepository()
		rotation = &models.SeedRotation{}
		event := events.SeedRotatedEvent{AccountID: accountID}

		current, err := repo.GetActiveForUpdate(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to get active seed pair: %w", err)
		}

		// Retire before creating so the one-active-pair index is never violated
		if current != nil {
			retired, err := repo.Retire(ctx, current.ID)
			if err != nil {
				return fmt.Errorf("failed to retire seed pair: %w", err)
			}
			rotation.PreviousServerSeed = &retired.ServerSecret
			rotation.PreviousServerSeedHash = &retired.ServerSecretHash
			rotation.PreviousClientSeed = &retired.ClientSeed
			rotation.PreviousNonce = &retired.Nonce

			event.PreviousSeedPairID = &retired.ID
			event.PreviousServerSeed = &retired.ServerSecret
			event.PreviousServerSeedHash = &retired.ServerSecretHash
			event.PreviousNonce = &retired.Nonce
		}

		next, err := newSeedPair(accountID, clientSeed)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, next); err != nil {
			return fmt.Errorf("failed to create seed pair: %w", err)
		}

		rotation.NewServerSeedHash = next.ServerSecretHash
		rotation.NewClientSeed = next.ClientSeed

		event.NewSeedPairID = next.ID
		event.NewServerSeedHash = next.ServerSecretHash
		event.NewClientSeed = next.ClientSeed
		uow.EventBus().Publish(event)
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"error":     err,
		}).Error("Failed to rotate seed pair")
		return nil, err
	}

	m.metrics.RecordSeedRotated(ctx)
	log.WithFields(log.Fields{
		"accountID":         accountID,
		"hadPrevious":       rotation.PreviousServerSeed != nil,
		"newServerSeedHash": rotation.NewServerSeedHash,
	}).Info("Seed pair rotated")

	return rotation, nil
}

// ReserveNextNonce locks the active pair inside uow, returns its current nonce and persists
// nonce+1. The caller's transaction decides whether the reservation sticks.
func (m *seedManager) ReserveNextNonce(ctx context.Context, uow UnitOfWork, accountID int64) (*models.SeedReservation, error) {
	if uow == nil {
		return nil, NewError(KindInternal, "nonce reservation requires an open unit of work", nil)
	}

	pair, err := m.activeOrCreate(ctx, uow, accountID, true)
	if err != nil {
		return nil, err
	}

	if err := uow.SeedPairRepository().AdvanceNonce(ctx, pair.ID, pair.Nonce); err != nil {
		return nil, fmt.Errorf("failed to advance nonce: %w", err)
	}

	return &models.SeedReservation{
		SeedPairID:       pair.ID,
		ServerSecret:     pair.ServerSecret,
		ServerSecretHash: pair.ServerSecretHash,
		ClientSeed:       pair.ClientSeed,
		Nonce:            pair.Nonce,
	}, nil
}

// ListRevealed returns the account's retired pairs with their secrets
func (m *seedManager) ListRevealed(ctx context.Context, accountID int64, limit int) ([]*models.RevealedSeed, error) {
	limit = clampLimit(limit)

	var pairs []*models.SeedPair
	err := runInTransaction(ctx, m.uowFactory, m.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		pairs, err = uow.SeedPairRepository().ListRevealed(ctx, accountID, limit)
		if err != nil {
			return fmt.Errorf("failed to list revealed seed pairs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	revealed := make([]*models.RevealedSeed, 0, len(pairs))
	for _, pair := range pairs {
		if r, ok := pair.Revealed(); ok {
			revealed = append(revealed, r)
		}
	}
	return revealed, nil
}

// activeOrCreate returns the active pair, inserting a fresh one when the account has none.
// forUpdate locks the existing row; a freshly inserted row is already owned by the transaction.
func (m *seedManager) activeOrCreate(ctx context.Context, uow UnitOfWork, accountID int64, forUpdate bool) (*models.SeedPair, error) {
	repo := uow.SeedPairRepository()

	var pair *models.SeedPair
	var err error
	if forUpdate {
		pair, err = repo.GetActiveForUpdate(ctx, accountID)
	} else {
		pair, err = repo.GetActive(ctx, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active seed pair: %w", err)
	}
	if pair != nil {
		return pair, nil
	}

	pair, err = newSeedPair(accountID, "")
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to create seed pair: %w", err)
	}

	uow.EventBus().Publish(events.SeedPairCreatedEvent{
		AccountID:      accountID,
		SeedPairID:     pair.ID,
		ServerSeedHash: pair.ServerSecretHash,
		ClientSeed:     pair.ClientSeed,
	})

	log.WithFields(log.Fields{
		"accountID":  accountID,
		"seedPairID": pair.ID,
	}).Debug("Created seed pair")

	return pair, nil
}

func newSeedPair(accountID int64, clientSeed string) (*models.SeedPair, error) {
	secret, err := fairness.GenerateServerSecret()
	if err != nil {
		return nil, NewError(KindInternal, "failed to generate server secret", err)
	}
	if clientSeed == "" {
		clientSeed, err = fairness.GenerateClientSeed()
		if err != nil {
			return nil, NewError(KindInternal, "failed to generate client seed", err)
		}
	}

	return &models.SeedPair{
		AccountID:        accountID,
		ServerSecret:     secret,
		ServerSecretHash: fairness.Commit(secret),
		ClientSeed:       clientSeed,
		Nonce:            0,
		Active:           true,
	}, nil
}
