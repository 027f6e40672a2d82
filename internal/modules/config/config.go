package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	redisAddrENV      = "REDIS_ADDR"
	databaseDSN       = "DATABASE_DSN"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
)

// RiskConfig — границы риск-гейта. Проверяются один раз при загрузке,
// дальше по пайплайну значения считаются валидными.
type RiskConfig struct {
	ATRPeriod      int     `yaml:"atr_period"`
	MinATRMultiple float64 `yaml:"min_atr_multiple"`
	MaxATRMultiple float64 `yaml:"max_atr_multiple"`
	MinRR          float64 `yaml:"min_rr"`
}

// QueueConfig — где живёт очередь сигналов.
type QueueConfig struct {
	Backend string `yaml:"backend"` // memory | redis | postgres
	Redis   struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Config ...
type Config struct {
	Symbol       string `yaml:"symbol"`
	Timeframe    string `yaml:"timeframe"`
	CandleLimit  int    `yaml:"candle_limit"`
	CandleSource string `yaml:"candle_source"` // synthetic | stream

	// Интервалы только через env (CYCLE_INTERVAL, SIGNAL_MAX_AGE):
	// yaml.v2 не разбирает строки вида "60s" в time.Duration.
	CycleInterval time.Duration `yaml:"-"`

	MaxCapitalPct float64    `yaml:"max_capital_pct"`
	Risk          RiskConfig `yaml:"risk"`

	Queue QueueConfig `yaml:"queue"`

	// Каталог CSV-журналов решений/исходов
	LedgerDir string `yaml:"ledger_dir"`

	// Свежесть сигнала для бриджа
	SignalMaxAge time.Duration `yaml:"-"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`
}

const (
	QueueBackendMemory   = "memory"
	QueueBackendRedis    = "redis"
	QueueBackendPostgres = "postgres"

	CandleSourceSynthetic = "synthetic"
	CandleSourceStream    = "stream"
)

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	config := Config{
		Symbol:        getenvDefault("DEFAULT_SYMBOL", "BTC/USDT"),
		Timeframe:     getenvDefault("TIMEFRAME", "5m"),
		CycleInterval: durationFromEnv("CYCLE_INTERVAL", "60s"),
		CandleLimit:   intFromEnv("CANDLE_LIMIT", 250),
		MaxCapitalPct: floatFromEnv("MAX_CAPITAL_PCT", 0.05),
		Risk: RiskConfig{
			ATRPeriod:      intFromEnv("ATR_PERIOD", 14),
			MinATRMultiple: floatFromEnv("MIN_ATR_MULTIPLE", 0.5),
			MaxATRMultiple: floatFromEnv("MAX_ATR_MULTIPLE", 5.0),
			MinRR:          floatFromEnv("MIN_RR", 1.5),
		},
		LedgerDir:    getenvDefault("LEDGER_DIR", "decision_logs"),
		SignalMaxAge: durationFromEnv("SIGNAL_MAX_AGE", "10m"),
		CandleSource: getenvDefault("CANDLE_SOURCE", CandleSourceSynthetic),
	}
	config.Queue.Backend = getenvDefault("QUEUE_BACKEND", QueueBackendMemory)
	config.Queue.Redis.Addr = getenvDefault(redisAddrENV, "localhost:6379")

	// yaml поверх дефолтов, если файл задан
	if configFileName := os.Getenv(configFilePathENV); configFileName != "" {
		file, err := os.Open("configs/" + configFileName)
		if err != nil {
			return nil, errors.Wrap(err, "open config file")
		}
		defer func() {
			_ = file.Close()
		}()

		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return nil, errors.Wrap(err, "decode config file")
		}
	}

	// env поверх всего
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		config.Queue.PostgresDSN = dsn
	}
	if token := os.Getenv(tokenTelegramENV); token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// validate — ломаемся на старте, а не на использовании.
func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Risk.ATRPeriod <= 0 {
		return fmt.Errorf("risk.atr_period must be > 0")
	}
	if !(c.Risk.MinATRMultiple > 0 && c.Risk.MinATRMultiple < c.Risk.MaxATRMultiple) {
		return fmt.Errorf("risk.min_atr_multiple must be > 0 and < risk.max_atr_multiple")
	}
	if c.Risk.MinRR < 1.0 {
		return fmt.Errorf("risk.min_rr must be >= 1.0")
	}
	if c.MaxCapitalPct <= 0 || c.MaxCapitalPct > 1 {
		return fmt.Errorf("max_capital_pct must be in (0,1]")
	}
	switch c.Queue.Backend {
	case QueueBackendMemory:
	case QueueBackendRedis:
		if c.Queue.Redis.Addr == "" {
			return fmt.Errorf("queue.redis.addr is required for redis backend")
		}
	case QueueBackendPostgres:
		if c.Queue.PostgresDSN == "" {
			return fmt.Errorf("queue.postgres_dsn is required for postgres backend")
		}
	default:
		return fmt.Errorf("unknown queue.backend %q", c.Queue.Backend)
	}
	if c.SignalMaxAge <= 0 {
		return fmt.Errorf("signal_max_age must be > 0")
	}
	if c.CandleSource != CandleSourceSynthetic && c.CandleSource != CandleSourceStream {
		return fmt.Errorf("unknown candle_source %q", c.CandleSource)
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
