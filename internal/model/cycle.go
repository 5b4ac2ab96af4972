package model

import "time"

// RequestState is the per-cycle state a request ended in.
type RequestState string

const (
	StateSkip     RequestState = "skip"
	StateClaimed  RequestState = "claimed"
	StateRaceLost RequestState = "race-lost"
	StateFailed   RequestState = "failed"
)

// SkipReason explains why a request was not claimed this cycle.
type SkipReason string

const (
	SkipNotPending        SkipReason = "not-pending"
	SkipAlreadyAssigned   SkipReason = "already-assigned"
	SkipPreferredOther    SkipReason = "preferred-other"
	SkipInsufficientFunds SkipReason = "insufficient-funds"
	SkipNoAddress         SkipReason = "no-address"
	SkipInvalidAddress    SkipReason = "invalid-address"
	SkipRiskRejected      SkipReason = "risk-rejected"
	SkipObserveFailed     SkipReason = "observe-failed"
	SkipNoMatch           SkipReason = "no-match"
	SkipRBFPending        SkipReason = "rbf-pending"
	SkipAmountMismatch    SkipReason = "amount-mismatch"
)

// RequestResult records what happened to one request during a cycle.
type RequestResult struct {
	RequestID     uint64       `json:"request_id"`
	State         RequestState `json:"state"`
	Reason        SkipReason   `json:"reason,omitempty"`
	TxID          string       `json:"txid,omitempty"`
	Amount        uint64       `json:"amount"`
	FeePercentage float64      `json:"fee_percentage"`
	Error         string       `json:"error,omitempty"`
}

// CycleSummary is the aggregate view of a finished cycle.
type CycleSummary struct {
	CycleID    string        `json:"cycle_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Pending    int           `json:"pending"`
	Balance    uint64        `json:"balance"`
	Claimed    int           `json:"claimed"`
	RaceLost   int           `json:"race_lost"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	FatalError string        `json:"fatal_error,omitempty"`
}
