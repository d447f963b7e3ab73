package models

import "time"

// SeedPair is one (server secret, client seed, nonce) triple owned by an account.
// The server secret may only leave the service once the pair is retired.
type SeedPair struct {
	ID               int64      `db:"id"`
	AccountID        int64      `db:"account_id"`
	ServerSecret     string     `db:"server_secret"`
	ServerSecretHash string     `db:"server_secret_hash"`
	ClientSeed       string     `db:"client_seed"`
	Nonce            int64      `db:"nonce"`
	Active           bool       `db:"active"`
	CreatedAt        time.Time  `db:"created_at"`
	RevealedAt       *time.Time `db:"revealed_at"`
}

// Info returns the public view of the pair.
func (p *SeedPair) Info() *SeedInfo {
	return &SeedInfo{
		ServerSeedHash: p.ServerSecretHash,
		ClientSeed:     p.ClientSeed,
		Nonce:          p.Nonce,
	}
}

// Revealed returns the disclosed view of a retired pair. It returns false for an active pair.
func (p *SeedPair) Revealed() (*RevealedSeed, bool) {
	if p.Active {
		return nil, false
	}
	return &RevealedSeed{
		ID:             p.ID,
		ServerSeed:     p.ServerSecret,
		ServerSeedHash: p.ServerSecretHash,
		ClientSeed:     p.ClientSeed,
		FinalNonce:     p.Nonce,
		CreatedAt:      p.CreatedAt,
		RevealedAt:     p.RevealedAt,
	}, true
}

// SeedInfo is what a player may see about the active pair.
type SeedInfo struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          int64  `json:"nonce"`
}

// RevealedSeed is a retired pair with its secret disclosed.
type RevealedSeed struct {
	ID             int64      `json:"id"`
	ServerSeed     string     `json:"server_seed"`
	ServerSeedHash string     `json:"server_seed_hash"`
	ClientSeed     string     `json:"client_seed"`
	FinalNonce     int64      `json:"final_nonce"`
	CreatedAt      time.Time  `json:"created_at"`
	RevealedAt     *time.Time `json:"revealed_at"`
}

// SeedRotation is the result of retiring the active pair and activating a new one.
type SeedRotation struct {
	PreviousServerSeed     *string `json:"previous_server_seed"`
	PreviousServerSeedHash *string `json:"previous_server_seed_hash"`
	PreviousClientSeed     *string `json:"previous_client_seed,omitempty"`
	PreviousNonce          *int64  `json:"previous_nonce,omitempty"`
	NewServerSeedHash      string  `json:"new_server_seed_hash"`
	NewClientSeed          string  `json:"new_client_seed"`
}

// SeedReservation is one consumed nonce together with the pair material needed to derive
// the outcome for it.
type SeedReservation struct {
	SeedPairID       int64
	ServerSecret     string
	ServerSecretHash string
	ClientSeed       string
	Nonce            int64
}
