package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a player's balance holder. The id comes from the identity provider.
type Account struct {
	ID        int64           `db:"id" json:"id"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
