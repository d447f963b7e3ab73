// Package fairness implements the provably fair primitives: server secret commitments,
// outcome derivation from (server secret, client seed, nonce) and the dice payout math.
// Everything here is pure apart from the seed generators.
package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	serverSecretBytes = 32
	clientSeedBytes   = 16

	// outcomeSpace is the number of distinct derived values, 0.00 through 99.99.
	outcomeSpace = 10000
)

var (
	// MinWinChance and MaxWinChance bound the accepted win chance, inclusive.
	MinWinChance = decimal.NewFromInt(1)
	MaxWinChance = decimal.NewFromInt(95)

	hundred = decimal.NewFromInt(100)
)

// GenerateServerSecret returns 32 bytes from the CSPRNG, hex encoded.
func GenerateServerSecret() (string, error) {
	return randomHex(serverSecretBytes)
}

// GenerateClientSeed returns 16 bytes from the CSPRNG, hex encoded.
func GenerateClientSeed() (string, error) {
	return randomHex(clientSeedBytes)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Commit returns the public commitment for a server secret: the hex SHA-256 of the secret
// string exactly as it will be revealed.
func Commit(serverSecret string) string {
	sum := sha256.Sum256([]byte(serverSecret))
	return hex.EncodeToString(sum[:])
}

// Derive computes the outcome number for one wager. The secret string's bytes key an
// HMAC-SHA256 over "clientSeed:nonce"; the first 8 hex digits of the digest are reduced
// modulo 10000 and scaled by 1/100, giving a value in [0.00, 99.99] with exactly two decimals.
func Derive(serverSecret, clientSeed string, nonce int64) decimal.Decimal {
	mac := hmac.New(sha256.New, []byte(serverSecret))
	mac.Write([]byte(clientSeed + ":" + strconv.FormatInt(nonce, 10)))
	digest := hex.EncodeToString(mac.Sum(nil))

	// 8 hex digits always fit in 32 bits
	n, _ := strconv.ParseUint(digest[:8], 16, 32)
	return decimal.New(int64(n%outcomeSpace), -2)
}

// Multiplier returns (100 - houseEdge) / winChance rounded half-up to 2 decimals.
func Multiplier(houseEdge, winChance decimal.Decimal) decimal.Decimal {
	return hundred.Sub(houseEdge).DivRound(winChance, 2)
}

// Payout returns stake * multiplier rounded half-up to 2 decimals. A 2-decimal stake times a
// 2-decimal multiplier can carry 4 decimals, and balances are stored as NUMERIC(18,2), so the
// rounded value is the amount credited and recorded.
func Payout(stake, multiplier decimal.Decimal) decimal.Decimal {
	return stake.Mul(multiplier).Round(2)
}

// IsWin reports whether a derived result wins at the given win chance.
func IsWin(result, winChance decimal.Decimal) bool {
	return result.LessThan(winChance)
}

// CentPrecision reports whether d has no significant digits beyond 2 decimal places.
// Trailing zeros do not count: 10.000 passes, 10.005 does not.
func CentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// ValidWinChance reports whether winChance lies inside [MinWinChance, MaxWinChance].
func ValidWinChance(winChance decimal.Decimal) bool {
	return winChance.GreaterThanOrEqual(MinWinChance) && winChance.LessThanOrEqual(MaxWinChance)
}

// Verification is the result of replaying a wager against a revealed server secret.
type Verification struct {
	ServerSeed        string          `json:"server_seed"`
	ServerSeedHash    string          `json:"server_seed_hash"`
	ClientSeed        string          `json:"client_seed"`
	Nonce             int64           `json:"nonce"`
	ResultNumber      decimal.Decimal `json:"result_number"`
	CommitmentMatches bool            `json:"commitment_matches"`
}

// Verify recomputes the outcome for (serverSeed, clientSeed, nonce) and checks serverSeed
// against a previously published commitment. An empty commitment is reported as a mismatch
// and the computed hash is returned in its place.
func Verify(serverSeed, commitment, clientSeed string, nonce int64) Verification {
	actual := Commit(serverSeed)
	v := Verification{
		ServerSeed:     serverSeed,
		ServerSeedHash: actual,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		ResultNumber:   Derive(serverSeed, clientSeed, nonce),
	}
	if commitment != "" {
		v.CommitmentMatches = hmac.Equal([]byte(actual), []byte(commitment))
	}
	return v
}
