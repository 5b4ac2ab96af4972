package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"BoostKeeper/internal/config"
	"BoostKeeper/internal/explorer"
	"BoostKeeper/internal/ledger"
	"BoostKeeper/internal/notifier"
	"BoostKeeper/internal/observer"
	"BoostKeeper/internal/recorder"
	"BoostKeeper/internal/scheduler"
	"BoostKeeper/internal/settlement"
	"BoostKeeper/internal/status"

	"github.com/urfave/cli/v2"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the booster loop (default)",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func run(cfg *config.Config) error {
	log.Println("[INFO] BoostKeeper starting...")
	unit := cfg.Unit()

	validate, err := settlement.NewAddressValidator(cfg.Explorer.Network)
	if err != nil {
		return fmt.Errorf("explorer.network: %w", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newLedgerClient(cfg)
	acct, err := ledger.EnsureRegistered(ctx, client)
	if err != nil {
		return err
	}
	log.Printf("[INFO] booster %s, available balance %s", acct.Owner, unit.Format(acct.AvailableBalance))
	if minBal := cfg.MinBalance(); acct.AvailableBalance < minBal {
		log.Printf("[WARN] available balance %s is below minimum %s", unit.Format(acct.AvailableBalance), unit.Format(minBal))
	}

	fetcher := explorer.NewEsploraFetcher(cfg.Explorer.BaseURL, cfg.Proxy, cfg.Explorer.RequestsPerSecond, cfg.Explorer.Burst)
	log.Printf("[INFO] explorer: %s (%s, %s)", fetcher.Name(), fetcher.BaseURL, cfg.Explorer.Network)

	opts := []settlement.Option{
		settlement.WithUnit(unit),
		settlement.WithAddressValidator(validate),
	}
	if cfg.RespectPreferred() {
		opts = append(opts, settlement.WithPreferredBooster(cfg.Ledger.Principal))
	}
	ctrl := settlement.NewController(client, observer.NewObserver(fetcher, cfg.Explorer.IncludeConfirmed), cfg.Thresholds(), opts...)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	loop := scheduler.NewLoop(ctrl, cfg.Booster.PollInterval)
	loop.Recorder = rec
	loop.Unit = unit
	loop.Dedup = ctrl.Registry()
	loop.Metrics.SetBalance(acct.AvailableBalance)

	var tn *notifier.TelegramNotifier
	if cfg.NotificationsEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		loop.Notifier = tn
	} else {
		log.Println("[INFO] telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, client, loop, rec, nil)
	if tn != nil {
		sched.Notifier = tn
	}
	sched.MinBalance = cfg.MinBalance()
	if err := sched.RegisterAll(cfg.Schedule.BalanceCron, cfg.Schedule.SummaryCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if cfg.Status.ListenAddr != "" {
		srv := status.New(cfg.Status.ListenAddr, loop, loop.Metrics.Registry)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Printf("[ERROR] status server: %v", err)
			}
		}()
	}

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	log.Println("[INFO] BoostKeeper is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, finishing current cycle...")
	cancel()
	<-loopDone
	log.Println("[INFO] BoostKeeper stopped")
	return nil
}
