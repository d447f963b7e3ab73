package service

import (
	"context"
	"fmt"

	"fairdice/fairness"
	"fairdice/models"

	"github.com/google/uuid"
)

type verificationService struct {
	uowFactory UnitOfWorkFactory
	retry      RetryPolicy
}

// NewVerificationService creates a new verification service
func NewVerificationService(uowFactory UnitOfWorkFactory, retry RetryPolicy) VerificationService {
	return &verificationService{
		uowFactory: uowFactory,
		retry:      retry,
	}
}

// VerifyWager replays a wager against its seed pair. The pair must already be retired,
// otherwise its secret is still undisclosed.
func (s *verificationService) VerifyWager(ctx context.Context, accountID int64, betID uuid.UUID) (*models.WagerVerification, error) {
	var wager *models.Wager
	var pair *models.SeedPair
	err := runInTransaction(ctx, s.uowFactory, s.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		wager, err = uow.WagerRepository().GetByID(ctx, betID)
		if err != nil {
			return fmt.Errorf("failed to get wager: %w", err)
		}
		// Other accounts' wagers are indistinguishable from missing ones
		if wager == nil || wager.AccountID != accountID {
			return NewError(KindNotFound, fmt.Sprintf("bet %s not found", betID), nil)
		}

		pair, err = uow.SeedPairRepository().GetByID(ctx, wager.SeedPairID)
		if err != nil {
			return fmt.Errorf("failed to get seed pair: %w", err)
		}
		if pair == nil {
			return NewError(KindInternal, fmt.Sprintf("seed pair %d missing for bet %s", wager.SeedPairID, betID), nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	revealed, ok := pair.Revealed()
	if !ok {
		return nil, NewError(KindValidation, "seed pair not yet revealed; rotate the seed to verify this bet", nil)
	}

	v := fairness.Verify(revealed.ServerSeed, wager.Snapshot.ServerSeedHash, wager.Snapshot.ClientSeed, wager.Snapshot.Nonce)
	resultMatches := v.ResultNumber.Equal(wager.Snapshot.ResultNumber)

	// The snapshot must agree with the wager row and the pair it was settled against
	recordMatches := wager.Snapshot.Nonce == wager.Nonce &&
		wager.Nonce < pair.Nonce &&
		wager.Snapshot.ClientSeed == pair.ClientSeed &&
		wager.Snapshot.ServerSeedHash == pair.ServerSecretHash

	return &models.WagerVerification{
		BetID:             wager.ID,
		ServerSeed:        revealed.ServerSeed,
		ServerSeedHash:    wager.Snapshot.ServerSeedHash,
		ClientSeed:        wager.Snapshot.ClientSeed,
		Nonce:             wager.Snapshot.Nonce,
		RecordedResult:    wager.Snapshot.ResultNumber,
		RecomputedResult:  v.ResultNumber,
		CommitmentMatches: v.CommitmentMatches,
		ResultMatches:     resultMatches,
		RecordMatches:     recordMatches,
		Verified:          v.CommitmentMatches && resultMatches && recordMatches,
	}, nil
}
