package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"BoostKeeper/internal/config"
	"BoostKeeper/internal/ledger"

	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := &cli.App{
		Name:  "booster",
		Usage: "accept ckBTC boost requests once their Bitcoin deposit is seen",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   config.DefaultPath,
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Action: runCmd.Action,
		Commands: []*cli.Command{
			runCmd,
			pendingCmd,
			accountCmd,
			registerCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

// loadConfig reads and validates the config named by --config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.File == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   true,
	}))
}

func newLedgerClient(cfg *config.Config) *ledger.RPCClient {
	return ledger.NewRPCClient(cfg.Ledger.Endpoint, cfg.Ledger.Principal, cfg.Ledger.AuthToken, cfg.Proxy, cfg.Ledger.Timeout)
}

var pendingCmd = &cli.Command{
	Name:  "pending",
	Usage: "print pending boost requests",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		reqs, err := newLedgerClient(cfg).ListPending(c.Context)
		if err != nil {
			return fmt.Errorf("list pending requests: %w", err)
		}
		unit := cfg.Unit()
		if len(reqs) == 0 {
			fmt.Println("no pending boost requests")
			return nil
		}
		for _, r := range reqs {
			addr := r.DepositAddress
			if addr == "" {
				addr = "-"
			}
			fmt.Printf("%d\t%s\t%.2f%%\t%d conf\t%s\n", r.ID, unit.Format(r.Amount), r.MaxFeePercentage, r.ConfirmationsRequired, addr)
		}
		return nil
	},
}

var accountCmd = &cli.Command{
	Name:  "account",
	Usage: "print the booster account",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		acct, err := newLedgerClient(cfg).GetOwnBalance(c.Context)
		if err != nil {
			return fmt.Errorf("get booster account: %w", err)
		}
		unit := cfg.Unit()
		fmt.Printf("owner:           %s\n", acct.Owner)
		fmt.Printf("available:       %s\n", unit.Format(acct.AvailableBalance))
		fmt.Printf("total deposited: %s\n", unit.Format(acct.TotalDeposited))
		return nil
	},
}

var registerCmd = &cli.Command{
	Name:  "register",
	Usage: "register the booster account if it does not exist",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		acct, err := ledger.EnsureRegistered(c.Context, newLedgerClient(cfg))
		if err != nil {
			return err
		}
		fmt.Printf("booster account %s ready, available %s\n", acct.Owner, cfg.Unit().Format(acct.AvailableBalance))
		return nil
	},
}
