package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	NotifyRedis = "redis"
	NotifyLog   = "log"
)

type Config struct {
	AppURL                 string
	DatabaseDriver         string
	DatabaseDSN            string
	RateLimit              int
	IPRateLimit            int
	RedisAddr              string
	NotifyDriver           string
	NotifyChannel          string
	NotifyWorkers          int
	NotifyQueueSize        int
	NotifySendTimeout      time.Duration
	StoreTimeout           time.Duration
	OverReportFactor       float64
	DebitOwnerOnApproval   bool
	ShutdownTimeoutSeconds int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDriver:         getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDSN:            getEnv("DATABASE_DSN", "timebank.db"),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		IPRateLimit:            getEnvAsInt("IP_RATE_LIMIT_PER_MINUTE", 600),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		NotifyDriver:           getEnv("NOTIFY_DRIVER", NotifyRedis),
		NotifyChannel:          getEnv("NOTIFY_CHANNEL", "timebank:events"),
		NotifyWorkers:          getEnvAsInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize:        getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		NotifySendTimeout:      time.Duration(getEnvAsInt("NOTIFY_SEND_TIMEOUT_MS", 2000)) * time.Millisecond,
		StoreTimeout:           time.Duration(getEnvAsInt("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,
		OverReportFactor:       getEnvAsFloat("OVER_REPORT_FACTOR", 1.5),
		DebitOwnerOnApproval:   getEnvAsBool("DEBIT_OWNER_ON_APPROVAL", false),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	if err := validate(cfg); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func validate(cfg Config) error {
	var errs []error
	if cfg.AppURL == "" {
		errs = append(errs, errors.New("APP_HOST/APP_PORT must not be empty (e.g. 127.0.0.1:8080)"))
	}
	if cfg.DatabaseDriver != DriverSQLite && cfg.DatabaseDriver != DriverPostgres {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverSQLite, DriverPostgres))
	}
	if cfg.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must not be empty"))
	}
	if cfg.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.IPRateLimit <= 0 {
		errs = append(errs, errors.New("IP_RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.NotifyDriver != NotifyRedis && cfg.NotifyDriver != NotifyLog {
		errs = append(errs, fmt.Errorf("NOTIFY_DRIVER must be %q or %q", NotifyRedis, NotifyLog))
	}
	if cfg.NotifyWorkers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be greater than 0"))
	}
	if cfg.NotifyQueueSize <= 0 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be greater than 0"))
	}
	if cfg.NotifySendTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_SEND_TIMEOUT_MS must be greater than 0"))
	}
	if cfg.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT_MS must be greater than 0"))
	}
	if cfg.OverReportFactor < 1 {
		errs = append(errs, errors.New("OVER_REPORT_FACTOR must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("invalid number value for %s", key)
		}
		return f
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid boolean value for %s", key)
		}
		return b
	}
	return defaultVal
}
