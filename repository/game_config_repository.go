package repository

import (
	"context"
	"errors"

	"fairdice/database"
	"fairdice/models"

	"github.com/jackc/pgx/v5"
)

// GameConfigRepository implements the GameConfigRepository interface
type GameConfigRepository struct {
	q queryable
}

// NewGameConfigRepository creates a new game config repository
func NewGameConfigRepository(db *database.DB) *GameConfigRepository {
	return &GameConfigRepository{q: db.Pool}
}

func newGameConfigRepositoryWithTx(tx queryable) *GameConfigRepository {
	return &GameConfigRepository{q: tx}
}

const gameConfigColumns = `id, name, game_type, house_edge, min_bet, max_bet, COALESCE(rules, '')`

func scanGameConfig(row pgx.Row) (*models.GameConfig, error) {
	var game models.GameConfig
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.GameType,
		&game.HouseEdge,
		&game.MinBet,
		&game.MaxBet,
		&game.Rules,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByID retrieves a game by id
func (r *GameConfigRepository) GetByID(ctx context.Context, id int64) (*models.GameConfig, error) {
	query := `SELECT ` + gameConfigColumns + ` FROM game_configs WHERE id = $1`

	game, err := scanGameConfig(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("failed to get game config", err)
	}
	return game, nil
}

// GetByType retrieves the first game of a type
func (r *GameConfigRepository) GetByType(ctx context.Context, gameType string) (*models.GameConfig, error) {
	query := `SELECT ` + gameConfigColumns + ` FROM game_configs WHERE game_type = $1 ORDER BY id LIMIT 1`

	game, err := scanGameConfig(r.q.QueryRow(ctx, query, gameType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("failed to get game config", err)
	}
	return game, nil
}

// List returns all games ordered by id
func (r *GameConfigRepository) List(ctx context.Context) ([]*models.GameConfig, error) {
	rows, err := r.q.Query(ctx, `SELECT `+gameConfigColumns+` FROM game_configs ORDER BY id`)
	if err != nil {
		return nil, storeError("failed to list game configs", err)
	}
	defer rows.Close()

	var games []*models.GameConfig
	for rows.Next() {
		game, err := scanGameConfig(rows)
		if err != nil {
			return nil, storeError("failed to scan game config", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to iterate game configs", err)
	}
	return games, nil
}
