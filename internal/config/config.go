package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"BoostKeeper/internal/explorer"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/risk"
	"BoostKeeper/internal/scheduler"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither CONFIG_PATH nor --config is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Ledger struct {
		Endpoint  string        `yaml:"endpoint"`
		Principal string        `yaml:"principal"`
		AuthToken string        `yaml:"auth_token"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"ledger"`
	Explorer struct {
		BaseURL           string  `yaml:"base_url"`
		Network           string  `yaml:"network"`
		RequestsPerSecond float64 `yaml:"requests_per_second"` // negative disables throttling
		Burst             int     `yaml:"burst"`
		IncludeConfirmed  bool    `yaml:"include_confirmed"`
	} `yaml:"explorer"`
	Booster struct {
		PollInterval            time.Duration `yaml:"poll_interval"`
		MinBalance              float64       `yaml:"min_balance"` // display units
		RespectPreferredBooster *bool         `yaml:"respect_preferred_booster"`
	} `yaml:"booster"`
	Risk struct {
		MaxAmount        float64       `yaml:"max_amount"`         // display units
		MinFeePercentage *float64      `yaml:"min_fee_percentage"` // percent; 0 disables the fee floor
		MaxRequestAge    time.Duration `yaml:"max_request_age"`
		Decimals         int32         `yaml:"decimals"`
		Symbol           string        `yaml:"symbol"`
	} `yaml:"risk"`
	Schedule struct {
		BalanceCron string `yaml:"balance_cron"`
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Status struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"status"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"LEDGER_ENDPOINT":    &c.Ledger.Endpoint,
		"BOOSTER_PRINCIPAL":  &c.Ledger.Principal,
		"LEDGER_AUTH_TOKEN":  &c.Ledger.AuthToken,
		"EXPLORER_BASE_URL":  &c.Explorer.BaseURL,
		"BITCOIN_NETWORK":    &c.Explorer.Network,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"HTTPS_PROXY":        &c.Proxy,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"STATUS_ADDR":        &c.Status.ListenAddr,
		"LOG_FILE":           &c.Log.File,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Booster.PollInterval = d
	}
	if v := os.Getenv("MIN_BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MIN_BALANCE: %w", err)
		}
		c.Booster.MinBalance = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = 30 * time.Second
	}
	if c.Explorer.BaseURL == "" {
		c.Explorer.BaseURL = explorer.DefaultBaseURL
	}
	if c.Explorer.Network == "" {
		c.Explorer.Network = "testnet4"
	}
	if c.Explorer.RequestsPerSecond == 0 {
		c.Explorer.RequestsPerSecond = 2
	}
	if c.Explorer.Burst == 0 {
		c.Explorer.Burst = 4
	}
	if c.Booster.PollInterval == 0 {
		c.Booster.PollInterval = scheduler.DefaultInterval
	}
	if c.Booster.RespectPreferredBooster == nil {
		v := true
		c.Booster.RespectPreferredBooster = &v
	}
	if c.Risk.MaxAmount == 0 {
		c.Risk.MaxAmount = risk.DefaultMaxAmount.InexactFloat64()
	}
	if c.Risk.MinFeePercentage == nil {
		v := risk.DefaultMinFeePercentage.InexactFloat64()
		c.Risk.MinFeePercentage = &v
	}
	if c.Risk.Decimals == 0 {
		c.Risk.Decimals = model.DefaultUnit.Decimals
	}
	if c.Risk.Symbol == "" {
		c.Risk.Symbol = model.DefaultUnit.Symbol
	}
	if c.Schedule.BalanceCron == "" {
		c.Schedule.BalanceCron = scheduler.DefaultBalanceCron
	}
	if c.Schedule.SummaryCron == "" {
		c.Schedule.SummaryCron = scheduler.DefaultSummaryCron
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger.Endpoint == "" {
		errs = append(errs, fmt.Errorf("ledger.endpoint is required"))
	}
	if c.Ledger.Principal == "" {
		errs = append(errs, fmt.Errorf("ledger.principal is required"))
	}
	if c.Ledger.AuthToken == "" {
		errs = append(errs, fmt.Errorf("ledger.auth_token is required"))
	}
	if c.Booster.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("booster.poll_interval must be at least 1s"))
	}
	if c.Booster.MinBalance < 0 {
		errs = append(errs, fmt.Errorf("booster.min_balance must not be negative"))
	}
	if c.Risk.MaxAmount <= 0 {
		errs = append(errs, fmt.Errorf("risk.max_amount must be positive"))
	}
	if fee := c.minFee(); fee < 0 || fee > 100 {
		errs = append(errs, fmt.Errorf("risk.min_fee_percentage must be within [0, 100]"))
	}
	if c.Risk.MaxRequestAge < 0 {
		errs = append(errs, fmt.Errorf("risk.max_request_age must not be negative"))
	}
	if c.Risk.Decimals < 0 || c.Risk.Decimals > 18 {
		errs = append(errs, fmt.Errorf("risk.decimals must be within [0, 18]"))
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		errs = append(errs, fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set"))
	}
	return errors.Join(errs...)
}

// Unit returns the ledger display unit.
func (c *Config) Unit() model.Unit {
	return model.Unit{Decimals: c.Risk.Decimals, Symbol: c.Risk.Symbol}
}

// Thresholds builds the risk policy from the risk section.
func (c *Config) Thresholds() *risk.Thresholds {
	t := risk.NewThresholds(c.Unit())
	t.MaxAmount = decimal.NewFromFloat(c.Risk.MaxAmount)
	t.MinFeePercentage = decimal.NewFromFloat(c.minFee())
	t.MaxAge = c.Risk.MaxRequestAge
	return t
}

func (c *Config) minFee() float64 {
	if c.Risk.MinFeePercentage == nil {
		return risk.DefaultMinFeePercentage.InexactFloat64()
	}
	return *c.Risk.MinFeePercentage
}

// MinBalance returns booster.min_balance in smallest ledger units.
func (c *Config) MinBalance() uint64 {
	return c.Unit().FromDisplay(decimal.NewFromFloat(c.Booster.MinBalance))
}

// RespectPreferred reports whether requests preferring another booster are skipped.
func (c *Config) RespectPreferred() bool {
	return c.Booster.RespectPreferredBooster == nil || *c.Booster.RespectPreferredBooster
}

// NotificationsEnabled reports whether a Telegram bot is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != ""
}
