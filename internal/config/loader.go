package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/academic-scheduler/internal/generator"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	Env               string
	HTTPPort          int
	SQLiteDSN         string
	LogLevel          slog.Level
	NATSURL           string
	NATSSubjectPrefix string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	LockTTL           time.Duration
	LockWait          time.Duration
	GeneratorPolicy   generator.Policy
	GeneratorSeed     *uint64
}

// Production reports whether the service runs with production defaults.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads an optional .env file from the working directory and then
// parses configuration values from the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return FromEnv()
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// FromEnv parses configuration values from the current process environment.
//
// Optional fields fall back to development defaults. Every missing or
// malformed variable is collected and reported in a single error.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:               EnvDevelopment,
		HTTPPort:          8080,
		SQLiteDSN:         "scheduler.db",
		LogLevel:          slog.LevelInfo,
		NATSSubjectPrefix: "scheduler.notifications",
		LockTTL:           30 * time.Second,
		LockWait:          5 * time.Second,
		GeneratorPolicy:   generator.DefaultPolicy(),
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if env := strings.ToLower(strings.TrimSpace(os.Getenv("SCHEDULER_ENV"))); env != "" {
		switch env {
		case EnvDevelopment, EnvProduction, "test":
			cfg.Env = env
		default:
			invalid = append(invalid, "SCHEDULER_ENV")
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	// Production deployments must name their database explicitly.
	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	} else if cfg.Production() {
		missing = append(missing, "SCHEDULER_SQLITE_DSN")
	}

	if levelValue := strings.TrimSpace(os.Getenv("SCHEDULER_LOG_LEVEL")); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	cfg.NATSURL = strings.TrimSpace(os.Getenv("SCHEDULER_NATS_URL"))
	if prefix := strings.TrimSpace(os.Getenv("SCHEDULER_NATS_SUBJECT_PREFIX")); prefix != "" {
		if strings.ContainsAny(prefix, " *>") {
			invalid = append(invalid, "SCHEDULER_NATS_SUBJECT_PREFIX")
		} else {
			cfg.NATSSubjectPrefix = strings.TrimSuffix(prefix, ".")
		}
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("SCHEDULER_REDIS_PASSWORD")
	if dbValue := strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_DB")); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "SCHEDULER_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHEDULER_LOCK_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_LOCK_TTL")
		} else {
			cfg.LockTTL = ttl
		}
	}

	if waitValue := strings.TrimSpace(os.Getenv("SCHEDULER_LOCK_WAIT")); waitValue != "" {
		wait, err := time.ParseDuration(waitValue)
		if err != nil || wait <= 0 {
			invalid = append(invalid, "SCHEDULER_LOCK_WAIT")
		} else {
			cfg.LockWait = wait
		}
	}

	if policyPath := strings.TrimSpace(os.Getenv("SCHEDULER_GENERATOR_POLICY")); policyPath != "" {
		policy, err := LoadPolicy(policyPath)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_GENERATOR_POLICY")
		} else {
			cfg.GeneratorPolicy = policy
		}
	}

	if seedValue := strings.TrimSpace(os.Getenv("SCHEDULER_GENERATOR_SEED")); seedValue != "" {
		seed, err := strconv.ParseUint(seedValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_GENERATOR_SEED")
		} else {
			cfg.GeneratorSeed = &seed
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
