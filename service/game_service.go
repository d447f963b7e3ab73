package service

import (
	"context"
	"fmt"

	"fairdice/models"
)

type gameService struct {
	uowFactory UnitOfWorkFactory
	retry      RetryPolicy
}

// NewGameService creates a new game catalogue service
func NewGameService(uowFactory UnitOfWorkFactory, retry RetryPolicy) GameService {
	return &gameService{uowFactory: uowFactory, retry: retry}
}

func (s *gameService) ListGames(ctx context.Context) ([]*models.GameConfig, error) {
	var games []*models.GameConfig
	err := runInTransaction(ctx, s.uowFactory, s.retry.StoreTimeout, func(ctx context.Context, uow UnitOfWork) error {
		var err error
		games, err = uow.GameConfigRepository().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list games: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}
