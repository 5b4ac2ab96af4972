package model

// TxOutput is a single output of a settlement-network transaction.
type TxOutput struct {
	Address string
	Value   uint64
}

// RawTransaction is a transaction record as reported by the explorer.
type RawTransaction struct {
	TxID      string
	Confirmed bool
	Sequences []uint32 // one per input
	Outputs   []TxOutput
}

// ObservedTransaction is derived from a RawTransaction for one target address.
type ObservedTransaction struct {
	TxID         string
	Confirmed    bool
	MatchedValue uint64
	Replaceable  bool
}

// MatchKind classifies the result of observing a deposit address.
type MatchKind int

const (
	NoMatch MatchKind = iota
	RBFPending
	AmountMismatch
	Matched
)

func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "no-match"
	case RBFPending:
		return "rbf-pending"
	case AmountMismatch:
		return "amount-mismatch"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// MatchOutcome is the result of DepositObserver.Observe.
// TxID is set for RBFPending, AmountMismatch and Matched; Received for the last two.
type MatchOutcome struct {
	Kind     MatchKind
	TxID     string
	Received uint64
}
