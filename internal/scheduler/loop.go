package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"BoostKeeper/internal/metrics"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/notifier"
	"BoostKeeper/internal/recorder"
	"BoostKeeper/internal/settlement"
)

// DefaultInterval is the pause between two reconciliation cycles.
const DefaultInterval = 10 * time.Second

// Cycler runs one reconciliation cycle.
type Cycler interface {
	RunCycle(ctx context.Context) *settlement.Report
}

// Sender delivers a notification. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Loop drives the controller on a fixed cadence and fans each report out to
// the journal, metrics and notifications.
type Loop struct {
	Cycler   Cycler
	Interval time.Duration
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Notifier Sender // nil disables notifications
	Unit     model.Unit
	Dedup    interface{ Len() int }

	mu     sync.RWMutex
	last   *settlement.Report
	cycles int
}

// NewLoop creates a Loop with a noop recorder and fresh metrics.
func NewLoop(c Cycler, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		Cycler:   c,
		Interval: interval,
		Recorder: recorder.NewNoopRecorder(),
		Metrics:  metrics.New(),
		Unit:     model.DefaultUnit,
	}
}

// Run executes cycles until ctx is done. Cancellation is only observed
// between cycles: a cycle in flight runs to completion on a context that
// ignores ctx's cancellation.
func (l *Loop) Run(ctx context.Context) {
	log.Printf("[INFO] booster loop started, interval %v", l.Interval)
	timer := time.NewTimer(l.Interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			log.Println("[INFO] booster loop stopped")
			return
		}
		l.RunOnce(context.WithoutCancel(ctx))

		timer.Reset(l.Interval)
		select {
		case <-ctx.Done():
			log.Println("[INFO] booster loop stopped")
			return
		case <-timer.C:
		}
	}
}

// RunOnce runs a single cycle and publishes its report.
func (l *Loop) RunOnce(ctx context.Context) *settlement.Report {
	rep := l.Cycler.RunCycle(ctx)

	l.mu.Lock()
	l.last = rep
	l.cycles++
	l.mu.Unlock()

	if err := rep.Err(); err != nil {
		log.Printf("[WARN] cycle %s finished with errors: %v", rep.Summary.CycleID, err)
	}
	log.Printf("[INFO] cycle %s done in %v: %d pending, %d claimed, %d race lost, %d failed, %d skipped",
		rep.Summary.CycleID, rep.Summary.Duration.Round(time.Millisecond), rep.Summary.Pending,
		rep.Summary.Claimed, rep.Summary.RaceLost, rep.Summary.Failed, rep.Summary.Skipped)

	if l.Metrics != nil {
		l.Metrics.ObserveCycle(&rep.Summary, rep.Results)
		if l.Dedup != nil {
			l.Metrics.SetDedupSize(l.Dedup.Len())
		}
	}
	l.record(rep)

	for _, res := range rep.Claims {
		if res.State == model.StateClaimed {
			l.trySend(ctx, notifier.FormatClaim(res, l.Unit))
		}
	}
	return rep
}

// LastReport returns the most recent report, or nil before the first cycle.
func (l *Loop) LastReport() *settlement.Report {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Cycles returns how many cycles have completed.
func (l *Loop) Cycles() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cycles
}

func (l *Loop) record(rep *settlement.Report) {
	if l.Recorder == nil {
		return
	}
	if err := l.Recorder.RecordCycle(&rep.Summary); err != nil {
		log.Printf("[ERROR] record cycle: %v", err)
	}
	for _, res := range rep.Claims {
		evt := &recorder.ClaimEvent{
			CycleID:       rep.Summary.CycleID,
			RequestID:     res.RequestID,
			TxID:          res.TxID,
			Amount:        res.Amount,
			FeePercentage: res.FeePercentage,
			Result:        res.State,
			Message:       res.Error,
		}
		if res.State == model.StateClaimed {
			evt.ExpectedFee = model.ExpectedFee(res.Amount, res.FeePercentage)
		}
		if err := l.Recorder.RecordClaim(evt); err != nil {
			log.Printf("[ERROR] record claim: %v", err)
		}
	}
}

func (l *Loop) trySend(ctx context.Context, text string) {
	if l.Notifier == nil {
		return
	}
	if err := l.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
