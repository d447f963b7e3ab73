package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WagerOutcomeType is the settled result of a wager
type WagerOutcomeType string

const (
	WagerOutcomeWin  WagerOutcomeType = "win"
	WagerOutcomeLoss WagerOutcomeType = "loss"
)

// WagerSnapshot captures everything needed to replay a wager. Stored as JSONB.
type WagerSnapshot struct {
	WinChance      decimal.Decimal `json:"win_chance"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	ResultNumber   decimal.Decimal `json:"result_number"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
	IsWin          bool            `json:"is_win"`
	Payout         decimal.Decimal `json:"payout"`
}

// Wager is a settled, immutable wager record
type Wager struct {
	ID         uuid.UUID        `db:"id" json:"bet_id"`
	AccountID  int64            `db:"account_id" json:"account_id"`
	GameID     int64            `db:"game_id" json:"game_id"`
	SeedPairID int64            `db:"seed_pair_id" json:"seed_pair_id"`
	Nonce      int64            `db:"nonce" json:"nonce"`
	Stake      decimal.Decimal  `db:"stake" json:"stake"`
	Outcome    WagerOutcomeType `db:"outcome" json:"outcome"`
	NetChange  decimal.Decimal  `db:"net_change" json:"net_change"`
	Snapshot   WagerSnapshot    `db:"snapshot" json:"snapshot"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// WagerOutcome is returned to the player after settlement
type WagerOutcome struct {
	BetID          uuid.UUID       `json:"bet_id"`
	ResultNumber   decimal.Decimal `json:"result_number"`
	WinChance      decimal.Decimal `json:"win_chance"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	IsWin          bool            `json:"is_win"`
	Stake          decimal.Decimal `json:"stake"`
	Payout         decimal.Decimal `json:"payout"`
	NetChange      decimal.Decimal `json:"net_change"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	ServerSeedHash string          `json:"server_seed_hash"`
	ClientSeed     string          `json:"client_seed"`
	Nonce          int64           `json:"nonce"`
}

// WagerVerification is the replay of a stored wager against its revealed seed pair
type WagerVerification struct {
	BetID             uuid.UUID       `json:"bet_id"`
	ServerSeed        string          `json:"server_seed"`
	ServerSeedHash    string          `json:"server_seed_hash"`
	ClientSeed        string          `json:"client_seed"`
	Nonce             int64           `json:"nonce"`
	RecordedResult    decimal.Decimal `json:"recorded_result"`
	RecomputedResult  decimal.Decimal `json:"recomputed_result"`
	CommitmentMatches bool            `json:"commitment_matches"`
	ResultMatches     bool            `json:"result_matches"`
	RecordMatches     bool            `json:"record_matches"`
	Verified          bool            `json:"verified"`
}
