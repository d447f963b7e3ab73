// Command audit replays many nonces of freshly generated seed pairs through the outcome
// derivation and reports how closely win rates and returns track the advertised odds.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"fairdice/fairness"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const buckets = 10

// chi-squared critical value for 9 degrees of freedom at 95% confidence
const uniformityCritical = 16.92

type auditResult struct {
	WinChance   decimal.Decimal
	Multiplier  decimal.Decimal
	Trials      int
	Wins        int
	TotalStaked decimal.Decimal
	TotalPaid   decimal.Decimal
	Buckets     [buckets]int
}

func (r auditResult) winRate() float64 {
	return float64(r.Wins) / float64(r.Trials)
}

func (r auditResult) rtp() float64 {
	if r.TotalStaked.IsZero() {
		return 0
	}
	return r.TotalPaid.Div(r.TotalStaked).InexactFloat64()
}

func (r auditResult) uniformity() float64 {
	expected := float64(r.Trials) / buckets
	chi := 0.0
	for _, count := range r.Buckets {
		chi += math.Pow(float64(count)-expected, 2) / expected
	}
	return chi
}

// simulate settles trials one-unit wagers spread over pairs seed pairs
func simulate(winChance, houseEdge decimal.Decimal, trials, pairs int) (auditResult, error) {
	if pairs < 1 {
		pairs = 1
	}
	result := auditResult{
		WinChance:  winChance,
		Multiplier: fairness.Multiplier(houseEdge, winChance),
		Trials:     trials,
	}
	stake := decimal.NewFromInt(1)
	perPair := (trials + pairs - 1) / pairs

	settled := 0
	for settled < trials {
		secret, err := fairness.GenerateServerSecret()
		if err != nil {
			return auditResult{}, err
		}
		clientSeed, err := fairness.GenerateClientSeed()
		if err != nil {
			return auditResult{}, err
		}

		for nonce := int64(0); nonce < int64(perPair) && settled < trials; nonce++ {
			number := fairness.Derive(secret, clientSeed, nonce)
			bucket := int(number.IntPart()) / (100 / buckets)
			result.Buckets[bucket]++

			result.TotalStaked = result.TotalStaked.Add(stake)
			if fairness.IsWin(number, winChance) {
				result.Wins++
				result.TotalPaid = result.TotalPaid.Add(fairness.Payout(stake, result.Multiplier))
			}
			settled++
		}
	}
	return result, nil
}

func report(r auditResult, tolerance float64) bool {
	expected := r.WinChance.Div(decimal.NewFromInt(100)).InexactFloat64()
	deviation := r.winRate() - expected
	pass := math.Abs(deviation) <= tolerance

	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	fmt.Printf("win chance %6s%% | x%-6s | trials %d | wins %d | rate %.4f | deviation %+.4f | RTP %.4f | chi2 %.2f | %s\n",
		r.WinChance.StringFixed(2), r.Multiplier.StringFixed(2), r.Trials, r.Wins, r.winRate(), deviation, r.rtp(), r.uniformity(), status)
	return pass
}

func parseChances(raw string) ([]decimal.Decimal, error) {
	var chances []decimal.Decimal
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chance, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("invalid win chance %q: %w", part, err)
		}
		if !fairness.ValidWinChance(chance) {
			return nil, fmt.Errorf("win chance %s is outside [%s, %s]", part, fairness.MinWinChance, fairness.MaxWinChance)
		}
		chances = append(chances, chance)
	}
	return chances, nil
}

func main() {
	trials := flag.Int("trials", 100000, "wagers simulated per win chance")
	pairs := flag.Int("pairs", 100, "seed pairs the trials are spread over")
	edge := flag.String("house-edge", "5.00", "house edge in percent")
	chancesFlag := flag.String("chances", "1,5,10,25,50,75,90,95", "comma separated win chances")
	tolerance := flag.Float64("tolerance", 0.01, "allowed absolute win-rate deviation")
	flag.Parse()

	houseEdge, err := decimal.NewFromString(*edge)
	if err != nil {
		log.WithError(err).Fatal("Invalid house edge")
	}
	chances, err := parseChances(*chancesFlag)
	if err != nil {
		log.WithError(err).Fatal("Invalid win chances")
	}

	fmt.Println("=== fairdice outcome audit ===")
	failed := false
	for _, chance := range chances {
		result, err := simulate(chance, houseEdge, *trials, *pairs)
		if err != nil {
			log.WithError(err).Fatal("Simulation failed")
		}
		if !report(result, *tolerance) {
			failed = true
		}
		if result.uniformity() > uniformityCritical {
			log.WithField("winChance", chance.String()).Warn("Derived numbers failed the uniformity test")
		}
	}

	if failed {
		os.Exit(1)
	}
}
