// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string        // e.g. "8080"
	BackofficePort       string        // e.g. "8081"
	Env                  string        // "development" | "production"
	ReadTimeout          time.Duration // default 10s
	WriteTimeout         time.Duration // default 10s
	BackofficeAllowedIPs string        // comma-separated IPs; "" = allow all
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// RedisConfig holds Redis settings for exposure snapshots and risk alerts.
type RedisConfig struct {
	Addr        string        // default "localhost:6379"
	Password    string        // default ""
	DB          int           // default 0
	SnapshotTTL time.Duration // default 5m; exposure snapshot expiry
}

// BettingConfig holds wager admission settings.
type BettingConfig struct {
	MinStake              float64 // minimum stake per bet
	MaxStake              float64 // maximum stake per bet; 0 = no cap
	DefaultMaxWeeklyBets  int     // default weekly bet count limit for new accounts; 0 = unlimited
	DefaultMaxWeeklyStake float64 // default weekly stake total limit; 0 = unlimited
}

// RiskConfig holds exposure monitoring settings.
type RiskConfig struct {
	AlertThreshold   float64       // per-game worst case that triggers an alert
	SnapshotInterval time.Duration // default 30s; exposure recompute cadence
	SweepInterval    time.Duration // default 15s; settlement sweep cadence
	RetryAttempts    int           // default 3; retries on serialization failures
}

// WalletConfig holds wallet and withdrawal settings.
type WalletConfig struct {
	MinWithdraw      float64 // minimum withdrawal amount
	MaxDailyWithdraw float64 // max cumulative withdrawal per day per account
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Betting BettingConfig
	Risk    RiskConfig
	Wallet  WalletConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if c.Betting.MinStake <= 0 {
		errs = append(errs, fmt.Errorf(
			"BETTING_MIN_STAKE must be positive, got %.2f", c.Betting.MinStake))
	}
	if c.Betting.MaxStake > 0 && c.Betting.MaxStake < c.Betting.MinStake {
		errs = append(errs, fmt.Errorf(
			"BETTING_MAX_STAKE (%.2f) must not be below BETTING_MIN_STAKE (%.2f)",
			c.Betting.MaxStake, c.Betting.MinStake))
	}

	if c.Risk.AlertThreshold <= 0 {
		errs = append(errs, fmt.Errorf(
			"RISK_ALERT_THRESHOLD must be positive, got %.2f", c.Risk.AlertThreshold))
	}
	if c.Risk.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf(
			"RISK_RETRY_ATTEMPTS must be at least 1, got %d", c.Risk.RetryAttempts))
	}

	if c.Wallet.MinWithdraw <= 0 {
		errs = append(errs, fmt.Errorf(
			"WALLET_MIN_WITHDRAW must be positive, got %.2f", c.Wallet.MinWithdraw))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:                 getEnv("SERVER_PORT", "8080"),
		BackofficePort:       getEnv("BACKOFFICE_PORT", "8081"),
		Env:                  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:          getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BackofficeAllowedIPs: getEnv("BACKOFFICE_ALLOWED_IPS", ""),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "betwise"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	cfg.Redis = RedisConfig{
		Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
		Password:    getEnv("REDIS_PASSWORD", ""),
		DB:          redisDB,
		SnapshotTTL: getDuration("REDIS_SNAPSHOT_TTL", 5*time.Minute),
	}

	// ── Betting ───────────────────────────────────────────────────────────────
	minStake, err := getFloat("BETTING_MIN_STAKE", 1)
	if err != nil {
		return nil, fmt.Errorf("BETTING_MIN_STAKE: %w", err)
	}
	maxStake, err := getFloat("BETTING_MAX_STAKE", 0)
	if err != nil {
		return nil, fmt.Errorf("BETTING_MAX_STAKE: %w", err)
	}
	defBets, err := getInt("BETTING_DEFAULT_MAX_WEEKLY_BETS", 0)
	if err != nil {
		return nil, fmt.Errorf("BETTING_DEFAULT_MAX_WEEKLY_BETS: %w", err)
	}
	defStake, err := getFloat("BETTING_DEFAULT_MAX_WEEKLY_STAKE", 0)
	if err != nil {
		return nil, fmt.Errorf("BETTING_DEFAULT_MAX_WEEKLY_STAKE: %w", err)
	}
	cfg.Betting = BettingConfig{
		MinStake:              minStake,
		MaxStake:              maxStake,
		DefaultMaxWeeklyBets:  defBets,
		DefaultMaxWeeklyStake: defStake,
	}

	// ── Risk ──────────────────────────────────────────────────────────────────
	threshold, err := getFloat("RISK_ALERT_THRESHOLD", 100_000)
	if err != nil {
		return nil, fmt.Errorf("RISK_ALERT_THRESHOLD: %w", err)
	}
	retries, err := getInt("RISK_RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("RISK_RETRY_ATTEMPTS: %w", err)
	}
	cfg.Risk = RiskConfig{
		AlertThreshold:   threshold,
		SnapshotInterval: getDuration("RISK_SNAPSHOT_INTERVAL", 30*time.Second),
		SweepInterval:    getDuration("RISK_SWEEP_INTERVAL", 15*time.Second),
		RetryAttempts:    retries,
	}

	// ── Wallet ────────────────────────────────────────────────────────────────
	minW, err := getFloat("WALLET_MIN_WITHDRAW", 10)
	if err != nil {
		return nil, fmt.Errorf("WALLET_MIN_WITHDRAW: %w", err)
	}
	maxDW, err := getFloat("WALLET_MAX_DAILY_WITHDRAW", 50_000)
	if err != nil {
		return nil, fmt.Errorf("WALLET_MAX_DAILY_WITHDRAW: %w", err)
	}
	cfg.Wallet = WalletConfig{
		MinWithdraw:      minW,
		MaxDailyWithdraw: maxDW,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Log warning and fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}
