package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	RedisAddr                string
	RedisPassword            string
	RoomMemberLimit          int
	LockWaitSeconds          int
	LockLeaseSeconds         int
	LockRetries              int
	MemberServiceURL         string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		RedisAddr:                "localhost:6379",
		RoomMemberLimit:          8,
		LockWaitSeconds:          5,
		LockLeaseSeconds:         3,
		LockRetries:              3,
		MemberServiceURL:         "http://localhost:8081",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("REDIS_ADDR"); raw != "" {
		cfg.RedisAddr = raw
	}
	if raw := os.Getenv("REDIS_PASSWORD"); raw != "" {
		cfg.RedisPassword = raw
	}
	if raw := os.Getenv("ROOM_MEMBER_LIMIT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 1 {
			cfg.RoomMemberLimit = value
		}
	}
	if raw := os.Getenv("LOCK_WAIT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LockWaitSeconds = value
		}
	}
	if raw := os.Getenv("LOCK_LEASE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LockLeaseSeconds = value
		}
	}
	if raw := os.Getenv("LOCK_RETRIES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LockRetries = value
		}
	}
	if raw := os.Getenv("MEMBER_SERVICE_URL"); raw != "" {
		cfg.MemberServiceURL = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}

// LockWait is the bounded wait for a distributed lock acquisition.
func (c Config) LockWait() time.Duration {
	return time.Duration(c.LockWaitSeconds) * time.Second
}

// LockLease is how long a lock survives a holder that never releases it.
func (c Config) LockLease() time.Duration {
	return time.Duration(c.LockLeaseSeconds) * time.Second
}
