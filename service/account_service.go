package service

import (
	"context"
	"fmt"

	"fairdice/events"
	"fairdice/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type accountService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance decimal.Decimal
	retry           RetryPolicy
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, startingBalance decimal.Decimal, retry RetryPolicy) AccountService {
	return &accountService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
		retry:           retry,
	}
}

// OpenAccount creates the account with the starting balance, or returns the existing one
func (s *accountService) OpenAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	if accountID <= 0 {
		return nil, NewError(KindValidation, "account id must be positive", nil)
	}

	var account *models.Account
	err := runInTransaction(ctx, s.uowFactory, s.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var created bool
		var err error
		account, created, err = uow.AccountRepository().Create(ctx, accountID, s.startingBalance)
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		if created {
			uow.EventBus().Publish(events.AccountOpenedEvent{
				AccountID:      accountID,
				InitialBalance: s.startingBalance,
			})
			log.WithFields(log.Fields{
				"accountID":      accountID,
				"initialBalance": s.startingBalance.StringFixed(2),
			}).Info("Opened account")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns an existing account
func (s *accountService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account *models.Account
	err := runInTransaction(ctx, s.uowFactory, s.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		account, err = uow.AccountRepository().GetByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		if account == nil {
			return NewError(KindNotFound, fmt.Sprintf("account %d not found", accountID), nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
