package observability

// Metric name prefix
const (
	MetricPrefix = "fairdice"
)

// Metric names
const (
	WagersSettledTotal = MetricPrefix + ".wagers.settled"
	WagersStakeTotal   = MetricPrefix + ".wagers.stake"
	WagersPayoutTotal  = MetricPrefix + ".wagers.payout"
	SettleDuration     = MetricPrefix + ".settle.duration"
	SeedsRotatedTotal  = MetricPrefix + ".seeds.rotated"
	SettleConflicts    = MetricPrefix + ".settle.conflicts"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelOperation = "operation"
)
