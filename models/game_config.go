package models

import "github.com/shopspring/decimal"

// GameTypeDice is the win-chance/multiplier dice game.
const GameTypeDice = "dice"

// GameConfig holds the house parameters of a game. Read-only at runtime.
type GameConfig struct {
	ID        int64           `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	GameType  string          `db:"game_type" json:"game_type"`
	HouseEdge decimal.Decimal `db:"house_edge" json:"house_edge"`
	MinBet    decimal.Decimal `db:"min_bet" json:"min_bet"`
	MaxBet    decimal.Decimal `db:"max_bet" json:"max_bet"`
	Rules     string          `db:"rules" json:"rules,omitempty"`
}

// AcceptsStake reports whether stake is inside the game's bet bounds, inclusive.
func (g *GameConfig) AcceptsStake(stake decimal.Decimal) bool {
	return stake.GreaterThanOrEqual(g.MinBet) && stake.LessThanOrEqual(g.MaxBet)
}
