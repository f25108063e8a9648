package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Fee schedule
	PlatformFeePercent  float64
	ProcessorFeePercent float64
	ProcessorFixedCents int64
	SettlementHoldDays  int

	// Background workers
	SettlementSweepInterval time.Duration

	// Caching
	BalanceCacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "earnings_ledger"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PlatformFeePercent:  getEnvAsFloat("PLATFORM_FEE_PERCENT", 5.0),
		ProcessorFeePercent: getEnvAsFloat("PROCESSOR_FEE_PERCENT", 2.9),
		ProcessorFixedCents: int64(getEnvAsInt("PROCESSOR_FIXED_CENTS", 30)),
		SettlementHoldDays:  getEnvAsInt("SETTLEMENT_HOLD_DAYS", 7),

		SettlementSweepInterval: getEnvAsDuration("SETTLEMENT_SWEEP_INTERVAL", "10m"),

		BalanceCacheTTL: getEnvAsDuration("BALANCE_CACHE_TTL", "60s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
