package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"BoostKeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RecordAndSummarize(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer rec.Close()

	since := time.Now().Add(-time.Minute)

	require.NoError(t, rec.RecordCycle(&model.CycleSummary{
		CycleID: "c1", StartedAt: time.Now(), Duration: 1500 * time.Millisecond,
		Pending: 3, Balance: 1000000, Claimed: 1, RaceLost: 1, Skipped: 1,
	}))
	require.NoError(t, rec.RecordCycle(&model.CycleSummary{CycleID: "c2", StartedAt: time.Now()}))

	require.NoError(t, rec.RecordClaim(&ClaimEvent{
		CycleID: "c1", RequestID: 1, TxID: "tx1", Amount: 500000, FeePercentage: 1.0,
		ExpectedFee: 5000, Result: model.StateClaimed,
	}))
	require.NoError(t, rec.RecordClaim(&ClaimEvent{
		CycleID: "c1", RequestID: 2, TxID: "tx2", Amount: 300000, FeePercentage: 0.5,
		ExpectedFee: 1500, Result: model.StateClaimed,
	}))
	require.NoError(t, rec.RecordClaim(&ClaimEvent{
		CycleID: "c1", RequestID: 3, TxID: "tx3", Amount: 100000,
		Result: model.StateRaceLost, Message: "already accepted",
	}))

	sum, err := rec.Summary(since)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Cycles)
	assert.Equal(t, 2, sum.Claimed)
	assert.Equal(t, 1, sum.RaceLost)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, uint64(800000), sum.Volume)
	assert.Equal(t, uint64(6500), sum.ExpectedFees)

	later, err := rec.Summary(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, later.Cycles)
	assert.Equal(t, 0, later.Claimed)
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	require.NoError(t, rec.RecordCycle(&model.CycleSummary{}))
	require.NoError(t, rec.RecordClaim(&ClaimEvent{}))
	sum, err := rec.Summary(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Claimed)
	require.NoError(t, rec.Close())
}
