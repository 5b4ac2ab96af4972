package metrics

import (
	"testing"
	"time"

	"BoostKeeper/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	m.ObserveCycle(&model.CycleSummary{Duration: time.Second, Balance: 42}, []model.RequestResult{
		{RequestID: 1, State: model.StateClaimed},
		{RequestID: 2, State: model.StateSkip, Reason: model.SkipNoMatch},
		{RequestID: 3, State: model.StateSkip, Reason: model.SkipNoMatch},
		{RequestID: 4, State: model.StateRaceLost},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.balance))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("skip", "no-match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claims.WithLabelValues("claimed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claims.WithLabelValues("race-lost")))
}

func TestObserveCycle_FatalError(t *testing.T) {
	m := New()
	m.SetBalance(7)
	m.ObserveCycle(&model.CycleSummary{FatalError: "ledger unreachable"}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycleErrors))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.balance), "balance untouched on failed cycle")
}
