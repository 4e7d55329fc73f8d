package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("⚠️ %s=%q bukan angka, pakai default %d", key, v, def)
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// =======================
// FINANCE CONFIG
// =======================

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
	AppName  string
	// statement_timeout dalam ms
	StatementTimeout int
}

type FinanceConfig struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver string
	DB          DBConfig

	MaxBatchOps   int
	ReceiptPrefix string
	ReconcileCron string

	RedisAddr     string
	RedisPassword string

	JWTSecret string
	SeedFile  string

	RequestTimeout time.Duration
}

// Load membaca FinanceConfig dari ENV (panggil LoadEnv lebih dulu).
func Load() FinanceConfig {
	cfg := FinanceConfig{
		Port:        GetEnv("PORT", "3000"),
		Environment: GetEnv("RAILWAY_ENVIRONMENT", "local"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(GetEnv("STORE_DRIVER", StoreDriverPostgres)),
		DB: DBConfig{
			User:             GetEnv("DB_USER"),
			Password:         GetEnv("DB_PASSWORD"),
			Host:             GetEnv("DB_HOST", "localhost"),
			Port:             GetEnv("DB_PORT", "5432"),
			Name:             GetEnv("DB_NAME"),
			SSLMode:          GetEnv("DB_SSLMODE", "require"),
			AppName:          GetEnv("DB_APP_NAME", "schoolku_finance"),
			StatementTimeout: GetEnvInt("DB_STATEMENT_TIMEOUT_MS", 3000),
		},

		MaxBatchOps:   GetEnvInt("FINANCE_MAX_BATCH_OPS", 450),
		ReceiptPrefix: GetEnv("RECEIPT_PREFIX", "RCP"),
		ReconcileCron: GetEnv("RECONCILE_CRON"),

		RedisAddr:     GetEnv("REDIS_ADDR"),
		RedisPassword: GetEnv("REDIS_PASSWORD"),

		JWTSecret: GetEnv("JWT_SECRET"),
		SeedFile:  GetEnv("SEED_FILE"),

		RequestTimeout: time.Duration(GetEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}

	if cfg.MaxBatchOps <= 0 {
		cfg.MaxBatchOps = 450
	}
	if cfg.JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	} else {
		log.Println("✅ JWT_SECRET berhasil dimuat.")
	}
	return cfg
}
