package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config carries everything the service reads from the environment.
// A .env file is honored when present so local runs match docker-compose.
type Config struct {
	ServerAddress string
	PostgresConn  string

	TaskServiceURL     string
	TaskServiceTimeout time.Duration

	MinBidAmount decimal.Decimal
	MaxBidAmount decimal.Decimal

	AutoAssignmentEnabled bool
	NotificationEnabled   bool

	AssignmentSweepInterval   time.Duration
	CancellationSweepInterval time.Duration

	RedisAddr string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() (*Config, error) {
	// Missing .env is fine, real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8083"),
		PostgresConn:   os.Getenv("POSTGRES_CONN"),
		TaskServiceURL: getEnv("TASK_SERVICE_URL", "http://localhost:8082"),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       os.Getenv("SMTP_PORT"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       os.Getenv("SMTP_FROM"),
	}

	if cfg.PostgresConn == "" {
		return nil, fmt.Errorf("config: POSTGRES_CONN is required")
	}

	var err error
	if cfg.TaskServiceTimeout, err = getDuration("TASK_SERVICE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.AssignmentSweepInterval, err = getDuration("ASSIGNMENT_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CancellationSweepInterval, err = getDuration("CANCELLATION_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	if cfg.MinBidAmount, err = getDecimal("MIN_BID_AMOUNT", "50.00"); err != nil {
		return nil, err
	}
	if cfg.MaxBidAmount, err = getDecimal("MAX_BID_AMOUNT", "10000.00"); err != nil {
		return nil, err
	}
	if cfg.MinBidAmount.GreaterThan(cfg.MaxBidAmount) {
		return nil, fmt.Errorf("config: MIN_BID_AMOUNT %s exceeds MAX_BID_AMOUNT %s",
			cfg.MinBidAmount, cfg.MaxBidAmount)
	}

	if cfg.AutoAssignmentEnabled, err = getBool("AUTO_ASSIGNMENT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.NotificationEnabled, err = getBool("NOTIFICATION_ENABLED", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}

	return d, nil
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s: %w", key, err)
	}

	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}

	return b, nil
}
