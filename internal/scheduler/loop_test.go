package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"BoostKeeper/internal/dedup"
	"BoostKeeper/internal/explorer"
	"BoostKeeper/internal/ledger"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/observer"
	"BoostKeeper/internal/recorder"
	"BoostKeeper/internal/settlement"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingCycler parks inside RunCycle until release is closed.
type blockingCycler struct {
	entered chan struct{}
	release chan struct{}
	runs    atomic.Int32

	mu     sync.Mutex
	ctxErr error
}

func (b *blockingCycler) RunCycle(ctx context.Context) *settlement.Report {
	b.runs.Add(1)
	b.entered <- struct{}{}
	<-b.release
	b.mu.Lock()
	b.ctxErr = ctx.Err()
	b.mu.Unlock()
	return &settlement.Report{Summary: model.CycleSummary{CycleID: "c"}}
}

type countingCycler struct{ runs atomic.Int32 }

func (c *countingCycler) RunCycle(_ context.Context) *settlement.Report {
	c.runs.Add(1)
	return &settlement.Report{}
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
	return f.err
}

func (f *fakeSender) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

func TestLoop_StopBetweenCycles(t *testing.T) {
	c := &blockingCycler{entered: make(chan struct{}, 1), release: make(chan struct{})}
	l := NewLoop(c, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	<-c.entered
	cancel()

	select {
	case <-done:
		t.Fatal("loop returned while a cycle was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after the cycle completed")
	}

	assert.Equal(t, int32(1), c.runs.Load(), "no cycle starts after stop")
	c.mu.Lock()
	assert.NoError(t, c.ctxErr, "in-flight cycle context is not cancelled")
	c.mu.Unlock()
	assert.Equal(t, 1, l.Cycles())
}

func TestLoop_RepeatsAtInterval(t *testing.T) {
	c := &countingCycler{}
	l := NewLoop(c, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.GreaterOrEqual(t, l.Cycles(), 3)
}

func TestLoop_StoppedBeforeStart(t *testing.T) {
	c := &countingCycler{}
	l := NewLoop(c, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.Run(ctx)
	assert.Equal(t, int32(0), c.runs.Load())
}

func TestLoop_RunOncePublishes(t *testing.T) {
	req := model.Request{ID: 1, Status: model.StatusPending, Amount: 500000, MaxFeePercentage: 1.0, DepositAddress: "addr1"}
	repo := ledger.NewMockRepository(1000000, req)
	fetcher := explorer.NewMockFetcher()
	fetcher.SetMempool("addr1", model.RawTransaction{
		TxID:      "tx1",
		Sequences: []uint32{0xffffffff},
		Outputs:   []model.TxOutput{{Address: "addr1", Value: 500000}},
	})
	reg := dedup.NewRegistry()
	ctrl := settlement.NewController(repo, observer.NewObserver(fetcher, false), nil, settlement.WithRegistry(reg))

	rec, err := recorder.NewSQLiteRecorder(t.TempDir() + "/journal.db")
	require.NoError(t, err)
	defer rec.Close()
	sender := &fakeSender{}

	l := NewLoop(ctrl, time.Second)
	l.Recorder = rec
	l.Notifier = sender
	l.Dedup = reg

	assert.Nil(t, l.LastReport())
	rep := l.RunOnce(context.Background())
	require.NoError(t, rep.Err())
	assert.Same(t, rep, l.LastReport())

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "#1")

	sum, err := rec.Summary(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Cycles)
	assert.Equal(t, 1, sum.Claimed)
	assert.Equal(t, uint64(500000), sum.Volume)
	assert.Equal(t, uint64(5000), sum.ExpectedFees)

	n, err := testutil.GatherAndCount(l.Metrics.Registry, "boostkeeper_cycles_total", "boostkeeper_claims_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
