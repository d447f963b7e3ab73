package service

import (
	"context"
	"fmt"
	"time"

	"fairdice/events"
	"fairdice/fairness"
	"fairdice/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// wagerEngine implements WagerService. It is the only caller of ReserveNextNonce and the
// only writer of balances after an account is opened.
type wagerEngine struct {
	uowFactory UnitOfWorkFactory
	seeds      SeedService
	locker     AccountLocker
	retry      RetryPolicy
	metrics    Metrics
}

// NewWagerEngine creates a new wager service
func NewWagerEngine(uowFactory UnitOfWorkFactory, seeds SeedService, locker AccountLocker, retry RetryPolicy, metrics Metrics) WagerService {
	return &wagerEngine{
		uowFactory: uowFactory,
		seeds:      seeds,
		locker:     locker,
		retry:      retry,
		metrics:    metricsOrNoop(metrics),
	}
}

// Settle settles a wager against a specific game
func (e *wagerEngine) Settle(ctx context.Context, accountID, gameID int64, stake, winChance decimal.Decimal) (*models.WagerOutcome, error) {
	return e.settle(ctx, accountID, stake, winChance, func(ctx context.Context, repo GameConfigRepository) (*models.GameConfig, error) {
		return repo.GetByID(ctx, gameID)
	})
}

// PlaceWager settles a wager against the dice game
func (e *wagerEngine) PlaceWager(ctx context.Context, accountID int64, winChance, stake decimal.Decimal) (*models.WagerOutcome, error) {
	return e.settle(ctx, accountID, stake, winChance, func(ctx context.Context, repo GameConfigRepository) (*models.GameConfig, error) {
		return repo.GetByType(ctx, models.GameTypeDice)
	})
}

func (e *wagerEngine) settle(ctx context.Context, accountID int64, stake, winChance decimal.Decimal, loadGame func(context.Context, GameConfigRepository) (*models.GameConfig, error)) (*models.WagerOutcome, error) {
	if !fairness.ValidWinChance(winChance) {
		return nil, NewError(KindValidation, fmt.Sprintf("win chance must be between %s and %s",
			fairness.MinWinChance.StringFixed(2), fairness.MaxWinChance.StringFixed(2)), nil)
	}
	if !fairness.CentPrecision(winChance) {
		return nil, NewError(KindValidation, "win chance must have at most 2 decimal places", nil)
	}
	if !stake.IsPositive() {
		return nil, NewError(KindValidation, "stake must be positive", nil)
	}
	if !fairness.CentPrecision(stake) {
		return nil, NewError(KindValidation, "stake must have at most 2 decimal places", nil)
	}

	start := time.Now()
	var outcome *models.WagerOutcome
	err := atomically(ctx, e.uowFactory, e.locker, e.retry, e.metrics, accountID, "settle_wager", func(ctx context.Context, uow UnitOfWork) error {
		account, err := uow.AccountRepository().GetForUpdate(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return NewError(KindNotFound, fmt.Sprintf("account %d not found", accountID), nil)
		}
		if account.Balance.LessThan(stake) {
			return NewError(KindInsufficientFunds, fmt.Sprintf("insufficient balance: have %s, need %s",
				account.Balance.StringFixed(2), stake.StringFixed(2)), nil)
		}

		game, err := loadGame(ctx, uow.GameConfigRepository())
		if err != nil {
			return fmt.Errorf("failed to get game config: %w", err)
		}
		if game == nil {
			return NewError(KindNotFound, "game not found", nil)
		}
		if !game.AcceptsStake(stake) {
			return NewError(KindValidation, fmt.Sprintf("bet must be between %s and %s",
				game.MinBet.StringFixed(2), game.MaxBet.StringFixed(2)), nil)
		}

		reservation, err := e.seeds.ReserveNextNonce(ctx, uow, accountID)
		if err != nil {
			return err
		}

		result := fairness.Derive(reservation.ServerSecret, reservation.ClientSeed, reservation.Nonce)
		isWin := fairness.IsWin(result, winChance)
		multiplier := fairness.Multiplier(game.HouseEdge, winChance)

		payout := decimal.Zero
		netChange := stake.Neg()
		outcomeType := models.WagerOutcomeLoss
		if isWin {
			payout = fairness.Payout(stake, multiplier)
			netChange = payout.Sub(stake)
			outcomeType = models.WagerOutcomeWin
		}

		newBalance, err := uow.AccountRepository().AdjustBalance(ctx, accountID, netChange)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		wager := &models.Wager{
			ID:         uuid.New(),
			AccountID:  accountID,
			GameID:     game.ID,
			SeedPairID: reservation.SeedPairID,
			Nonce:      reservation.Nonce,
			Stake:      stake,
			Outcome:    outcomeType,
			NetChange:  netChange,
			Snapshot: models.WagerSnapshot{
				WinChance:      winChance,
				Multiplier:     multiplier,
				ResultNumber:   result,
				ServerSeedHash: reservation.ServerSecretHash,
				ClientSeed:     reservation.ClientSeed,
				Nonce:          reservation.Nonce,
				IsWin:          isWin,
				Payout:         payout,
			},
		}
		if err := uow.WagerRepository().Create(ctx, wager); err != nil {
			return fmt.Errorf("failed to record wager: %w", err)
		}

		outcome = &models.WagerOutcome{
			BetID:          wager.ID,
			ResultNumber:   result,
			WinChance:      winChance,
			Multiplier:     multiplier,
			IsWin:          isWin,
			Stake:          stake,
			Payout:         payout,
			NetChange:      netChange,
			NewBalance:     newBalance,
			ServerSeedHash: reservation.ServerSecretHash,
			ClientSeed:     reservation.ClientSeed,
			Nonce:          reservation.Nonce,
		}

		uow.EventBus().Publish(events.BetSettledEvent{
			AccountID:      accountID,
			BetID:          wager.ID.String(),
			GameID:         game.ID,
			Stake:          stake,
			WinChance:      winChance,
			Multiplier:     multiplier,
			ResultNumber:   result,
			IsWin:          isWin,
			Payout:         payout,
			NetChange:      netChange,
			NewBalance:     newBalance,
			ServerSeedHash: reservation.ServerSecretHash,
			ClientSeed:     reservation.ClientSeed,
			Nonce:          reservation.Nonce,
		})
		return nil
	})
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"stake":     stake.String(),
			"winChance": winChance.String(),
			"kind":      KindOf(err),
			"error":     err,
		}).Warn("Wager not settled")
		return nil, err
	}

	elapsed := time.Since(start)
	e.metrics.RecordWagerSettled(ctx, outcome, elapsed)
	log.WithFields(log.Fields{
		"accountID":    accountID,
		"betID":        outcome.BetID,
		"stake":        stake.String(),
		"winChance":    winChance.String(),
		"resultNumber": outcome.ResultNumber.StringFixed(2),
		"isWin":        outcome.IsWin,
		"payout":       outcome.Payout.StringFixed(2),
		"newBalance":   outcome.NewBalance.StringFixed(2),
		"nonce":        outcome.Nonce,
		"elapsed":      elapsed,
	}).Info("Wager settled")

	return outcome, nil
}

// ListWagers returns the account's settled wagers, newest first
func (e *wagerEngine) ListWagers(ctx context.Context, accountID int64, limit int) ([]*models.Wager, error) {
	limit = clampLimit(limit)

	var wagers []*models.Wager
	err := runInTransaction(ctx, e.uowFactory, e.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		wagers, err = uow.WagerRepository().ListByAccount(ctx, accountID, limit)
		if err != nil {
			return fmt.Errorf("failed to list wagers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wagers, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
