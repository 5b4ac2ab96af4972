package recorder

import (
	"time"

	"BoostKeeper/internal/model"
)

// ClaimEvent records one claim attempt against the ledger.
type ClaimEvent struct {
	CycleID       string
	RequestID     uint64
	TxID          string
	Amount        uint64
	FeePercentage float64
	ExpectedFee   uint64
	Result        model.RequestState // claimed, race-lost or failed
	Message       string
}

// Summary aggregates journal rows over a time window.
type Summary struct {
	Since        time.Time
	Cycles       int
	Claimed      int
	RaceLost     int
	Failed       int
	Volume       uint64 // sum of claimed amounts
	ExpectedFees uint64
}

// Recorder journals booster activity for later analysis. It is an audit
// trail only; nothing is read back into the engine.
type Recorder interface {
	RecordCycle(sum *model.CycleSummary) error
	RecordClaim(evt *ClaimEvent) error
	Summary(since time.Time) (*Summary, error)
	Close() error
}
