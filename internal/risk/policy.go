package risk

import (
	"fmt"
	"time"

	"BoostKeeper/internal/model"

	"github.com/shopspring/decimal"
)

// Policy decides whether the booster is willing to front liquidity for a request.
// Implementations must not perform I/O or mutate the request.
type Policy interface {
	Accept(req *model.Request) bool
}

// Explainer is implemented by policies that can say why they rejected a request.
type Explainer interface {
	Explain(req *model.Request) Decision
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Accept bool
	Reason string
}

// Func adapts a plain function to Policy.
type Func func(req *model.Request) bool

func (f Func) Accept(req *model.Request) bool { return f(req) }

// AcceptAll accepts every request.
type AcceptAll struct{}

func (AcceptAll) Accept(_ *model.Request) bool { return true }

// Default thresholds.
var (
	DefaultMaxAmount        = decimal.NewFromInt(1)
	DefaultMinFeePercentage = decimal.NewFromFloat(0.1)
)

// Thresholds rejects requests that are too large, pay too little, or are too old.
type Thresholds struct {
	Unit             model.Unit
	MaxAmount        decimal.Decimal // display units
	MinFeePercentage decimal.Decimal // percent
	MaxAge           time.Duration   // 0 disables the age rule
	Now              func() time.Time
}

// NewThresholds returns a policy using the default limits.
func NewThresholds(unit model.Unit) *Thresholds {
	return &Thresholds{
		Unit:             unit,
		MaxAmount:        DefaultMaxAmount,
		MinFeePercentage: DefaultMinFeePercentage,
		Now:              time.Now,
	}
}

func (t *Thresholds) Accept(req *model.Request) bool {
	return t.Explain(req).Accept
}

// Explain evaluates every rule in order and returns the first rejection.
func (t *Thresholds) Explain(req *model.Request) Decision {
	amount := t.Unit.ToDisplay(req.Amount)
	if amount.GreaterThan(t.MaxAmount) {
		return Decision{Reason: fmt.Sprintf("amount too large (%s > %s %s)", amount.String(), t.MaxAmount.String(), t.Unit.Symbol)}
	}

	fee := decimal.NewFromFloat(req.MaxFeePercentage)
	if fee.LessThan(t.MinFeePercentage) {
		return Decision{Reason: fmt.Sprintf("fee too low (%s%% < %s%%)", fee.String(), t.MinFeePercentage.String())}
	}

	if t.MaxAge > 0 && !req.CreatedAt.IsZero() {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		if age := now().Sub(req.CreatedAt); age > t.MaxAge {
			return Decision{Reason: fmt.Sprintf("request too old (%s > %s)", age.Truncate(time.Second), t.MaxAge)}
		}
	}

	return Decision{Accept: true, Reason: "passes risk assessment"}
}
