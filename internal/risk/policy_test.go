package risk

import (
	"testing"
	"time"

	"BoostKeeper/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholds_Rules(t *testing.T) {
	p := NewThresholds(model.DefaultUnit)

	tests := []struct {
		name   string
		amount uint64
		fee    float64
		accept bool
	}{
		{"small amount, normal fee", 500_000, 1.0, true},
		{"exactly max amount", 100_000_000, 0.5, true},
		{"above max amount", 200_000_000, 1.0, false},
		{"one sat above max", 100_000_001, 1.0, false},
		{"fee at minimum", 500_000, 0.1, true},
		{"fee below minimum", 500_000, 0.05, false},
		{"zero fee", 500_000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.Request{ID: 1, Amount: tt.amount, MaxFeePercentage: tt.fee}
			assert.Equal(t, tt.accept, p.Accept(req))
		})
	}
}

func TestThresholds_ExplainReason(t *testing.T) {
	p := NewThresholds(model.DefaultUnit)

	d := p.Explain(&model.Request{Amount: 200_000_000, MaxFeePercentage: 1.0})
	require.False(t, d.Accept)
	assert.Contains(t, d.Reason, "amount too large")

	d = p.Explain(&model.Request{Amount: 1000, MaxFeePercentage: 0.01})
	require.False(t, d.Accept)
	assert.Contains(t, d.Reason, "fee too low")
}

func TestThresholds_IsPure(t *testing.T) {
	p := NewThresholds(model.DefaultUnit)
	req := &model.Request{ID: 7, Amount: 200_000_000, MaxFeePercentage: 1.0, DepositAddress: "addr"}
	before := *req

	first := p.Accept(req)
	second := p.Accept(req)

	assert.Equal(t, first, second)
	assert.Equal(t, before, *req)
}

func TestThresholds_MaxAge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewThresholds(model.DefaultUnit)
	p.MaxAge = time.Hour
	p.Now = func() time.Time { return now }

	fresh := &model.Request{Amount: 1000, MaxFeePercentage: 1, CreatedAt: now.Add(-30 * time.Minute)}
	stale := &model.Request{Amount: 1000, MaxFeePercentage: 1, CreatedAt: now.Add(-2 * time.Hour)}

	assert.True(t, p.Accept(fresh))
	assert.False(t, p.Accept(stale))
	assert.Contains(t, p.Explain(stale).Reason, "too old")
}

func TestThresholds_CustomLimits(t *testing.T) {
	p := &Thresholds{
		Unit:             model.Unit{Decimals: 2, Symbol: "USD"},
		MaxAmount:        decimal.NewFromInt(50),
		MinFeePercentage: decimal.NewFromFloat(0.5),
	}
	assert.True(t, p.Accept(&model.Request{Amount: 5000, MaxFeePercentage: 0.5}))
	assert.False(t, p.Accept(&model.Request{Amount: 5001, MaxFeePercentage: 0.5}))
	assert.False(t, p.Accept(&model.Request{Amount: 100, MaxFeePercentage: 0.4}))
}

func TestFuncAndAcceptAll(t *testing.T) {
	req := &model.Request{ID: 3}
	assert.True(t, AcceptAll{}.Accept(req))

	calls := 0
	f := Func(func(r *model.Request) bool {
		calls++
		return r.ID%2 == 0
	})
	assert.False(t, f.Accept(req))
	assert.Equal(t, 1, calls)
}
