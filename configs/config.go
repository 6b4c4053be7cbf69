package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ServerPort      string
	NumberOfWorkers int

	RedisAddr     string
	RedisDB       int
	GradingStream string
	GradingGroup  string

	JWTSecret string

	JudgeBackendURL       string
	JudgeCompileTimeoutMs int
	JudgeRetryAttempts    int
	JudgeRetryBackoffMs   int

	// Per-test-case wall clock budget when the problem carries no limit.
	DefaultCaseTimeoutMs int

	PartialCreditEnabled bool
	PartialMinPassed     int
	PartialRatio         float64
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "codearena"),

		ServerPort:      getEnv("SERVER_PORT", "8080"),
		NumberOfWorkers: getEnvAsInt("NUM_OF_WORKERS", 4),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		GradingStream: getEnv("GRADING_STREAM", "submission_grading"),
		GradingGroup:  getEnv("GRADING_GROUP", "graders"),

		JWTSecret: getEnv("JWT_SECRET", "defaultsecret"),

		JudgeBackendURL:       getEnv("JUDGE_BACKEND_URL", "http://localhost:2358/execute"),
		JudgeCompileTimeoutMs: getEnvAsInt("JUDGE_COMPILE_TIMEOUT_MS", 10000),
		JudgeRetryAttempts:    getEnvAsInt("JUDGE_RETRY_ATTEMPTS", 1),
		JudgeRetryBackoffMs:   getEnvAsInt("JUDGE_RETRY_BACKOFF_MS", 200),

		DefaultCaseTimeoutMs: getEnvAsInt("DEFAULT_CASE_TIMEOUT_MS", 3000),

		PartialCreditEnabled: getEnvAsBool("PARTIAL_CREDIT_ENABLED", false),
		PartialMinPassed:     getEnvAsInt("PARTIAL_MIN_PASSED", 2),
		PartialRatio:         getEnvAsFloat("PARTIAL_RATIO", 0.5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}
