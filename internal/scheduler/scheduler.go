package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"sync"
	"time"

	"BoostKeeper/internal/ledger"
	"BoostKeeper/internal/metrics"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/notifier"
	"BoostKeeper/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Default cron expressions (with seconds field).
const (
	DefaultBalanceCron = "0 */10 * * * *"
	DefaultSummaryCron = "0 0 9 * * *"
)

// Scheduler manages the auxiliary cron tasks that run beside the loop.
type Scheduler struct {
	Cron       *cron.Cron
	Repo       ledger.Repository
	Loop       *Loop
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Notifier   Sender
	Unit       model.Unit
	MinBalance uint64
	Ctx        context.Context

	mu          sync.Mutex
	lowNotified bool
	lastSummary time.Time
	now         func() time.Time
}

// NewScheduler creates a new Scheduler. The daily summary covers everything
// journaled since the previous summary, or since start for the first one.
func NewScheduler(ctx context.Context, repo ledger.Repository, loop *Loop, rec recorder.Recorder, tn Sender) *Scheduler {
	s := &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Repo:     repo,
		Loop:     loop,
		Recorder: rec,
		Notifier: tn,
		Unit:     model.DefaultUnit,
		Ctx:      ctx,
		now:      time.Now,
	}
	if loop != nil {
		s.Metrics = loop.Metrics
		s.Unit = loop.Unit
	}
	s.lastSummary = s.now()
	return s
}

// RegisterAll registers the balance check and daily summary tasks.
func (s *Scheduler) RegisterAll(balanceCron, summaryCron string) error {
	if balanceCron == "" {
		balanceCron = DefaultBalanceCron
	}
	if summaryCron == "" {
		summaryCron = DefaultSummaryCron
	}
	if _, err := s.Cron.AddFunc(balanceCron, s.balanceCheck); err != nil {
		return fmt.Errorf("register balance check: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.dailySummary); err != nil {
		return fmt.Errorf("register daily summary: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) balanceCheck() {
	acct, err := s.Repo.GetOwnBalance(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] balance check: %v", err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.SetBalance(acct.AvailableBalance)
	}

	s.mu.Lock()
	low := s.MinBalance > 0 && acct.AvailableBalance < s.MinBalance
	notify := low && !s.lowNotified
	s.lowNotified = low
	s.mu.Unlock()

	if !low {
		log.Printf("[INFO] balance check: %s available", s.Unit.Format(acct.AvailableBalance))
		return
	}
	log.Printf("[WARN] available balance %s is below minimum %s",
		s.Unit.Format(acct.AvailableBalance), s.Unit.Format(s.MinBalance))
	if notify {
		s.trySend(notifier.FormatBalanceLow(acct.AvailableBalance, s.MinBalance, s.Unit))
	}
}

func (s *Scheduler) dailySummary() {
	s.mu.Lock()
	since := s.lastSummary
	s.mu.Unlock()
	until := s.now()

	sum, err := s.Recorder.Summary(since)
	if err != nil {
		log.Printf("[ERROR] daily summary: %v", err)
		return
	}
	s.mu.Lock()
	s.lastSummary = until
	s.mu.Unlock()
	log.Printf("[INFO] daily summary: %d cycles, %d claimed, %d race lost, %d failed",
		sum.Cycles, sum.Claimed, sum.RaceLost, sum.Failed)
	s.trySend(notifier.FormatSummary(sum, s.Unit))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		if s.Loop == nil {
			return notifier.FormatStatus(nil, s.Unit)
		}
		rep := s.Loop.LastReport()
		if rep == nil {
			return notifier.FormatStatus(nil, s.Unit)
		}
		return notifier.FormatStatus(&rep.Summary, s.Unit)
	case "/balance":
		acct, err := s.Repo.GetOwnBalance(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ balance unavailable: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatBalance(acct, s.Unit)
	case "/pending":
		reqs, err := s.Repo.ListPending(s.Ctx)
		if err != nil {
			return fmt.Sprintf("❌ pending requests unavailable: %s", html.EscapeString(err.Error()))
		}
		return notifier.FormatPending(reqs, s.Unit, 20)
	default:
		return "Available commands:\n• /status\n• /balance\n• /pending"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
