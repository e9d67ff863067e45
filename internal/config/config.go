// Package config reads process configuration from the environment. An
// optional .env file in the working directory is loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/fjod/shop-scan-print/internal/repository"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	HistoryMemory   = "memory"
	HistoryPostgres = "postgres"
	HistoryMongo    = "mongo"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	HTTPPort        string
	LogLevel        string
	LogDev          bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TerminalID      string

	DBPath         string
	MigrationsPath string

	HistoryBackend string
	Postgres       repository.Credentials
	MongoURI       string
	MongoDBName    string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string

	PrinterAddr string
	ReceiptDir  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string

	ScanCodeStrategy string
	ShopConfigFile   string
}

func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogDev:          getBool("LOG_DEV", false),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		TerminalID:      getEnv("TERMINAL_ID", "terminal-1"),

		DBPath:         getEnv("DB_PATH", "./pos.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations/sqlite"),

		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", HistoryMemory)),
		Postgres: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "pos"),
			MigrationsDirPath: getEnv("HISTORY_MIGRATIONS_PATH", "./internal/repository/migrations/postgres"),
		},
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "pos"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "receipt-issued"),

		PrinterAddr: os.Getenv("PRINTER_ADDR"),
		ReceiptDir:  getEnv("RECEIPT_DIR", "./receipts"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Prefix:    getEnv("S3_PREFIX", "receipts/"),

		ScanCodeStrategy: getEnv("SCAN_CODE_STRATEGY", "timestamp"),
		ShopConfigFile:   os.Getenv("SHOP_CONFIG_FILE"),
	}

	switch cfg.HistoryBackend {
	case HistoryMemory, HistoryPostgres, HistoryMongo:
	default:
		return nil, fmt.Errorf("%w: unknown HISTORY_BACKEND %q", ErrInvalidConfig, cfg.HistoryBackend)
	}
	return cfg, nil
}

type shopFile struct {
	ShopName       string  `yaml:"shop_name"`
	ShopAddress    string  `yaml:"shop_address"`
	ShopPhone      string  `yaml:"shop_phone"`
	TaxRate        *string `yaml:"tax_rate"`
	CurrencySymbol string  `yaml:"currency_symbol"`
	Timezone       string  `yaml:"timezone"`
	AutoConnect    bool    `yaml:"auto_connect"`
	PrinterName    string  `yaml:"printer_name"`
}

// LoadShopDefaults returns the built-in shop configuration overlaid with the
// values found in the YAML file at path. An empty path yields the built-ins.
func LoadShopDefaults(path string) (domain.ShopConfig, error) {
	cfg := domain.DefaultShopConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read shop config: %w", err)
	}
	var f shopFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if f.ShopName != "" {
		cfg.ShopName = f.ShopName
	}
	if f.CurrencySymbol != "" {
		cfg.CurrencySymbol = f.CurrencySymbol
	}
	cfg.ShopAddress = f.ShopAddress
	cfg.ShopPhone = f.ShopPhone
	cfg.Timezone = f.Timezone
	cfg.AutoConnect = f.AutoConnect
	cfg.PrinterName = f.PrinterName
	if f.TaxRate != nil {
		rate, err := decimal.NewFromString(*f.TaxRate)
		if err != nil {
			return cfg, fmt.Errorf("%w: tax_rate %q", ErrInvalidConfig, *f.TaxRate)
		}
		cfg.TaxRate = rate
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
