package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env       string
	Port      string
	JWTSecret string
	UploadDir string
	Database  DatabaseConfig
	Workflow  WorkflowConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// WorkflowConfig holds scan-workflow tuning
type WorkflowConfig struct {
	// PrintAckWait bounds the wait for a print-completion signal.
	PrintAckWait time.Duration
	// ScanFrameRate is the camera sampling rate in frames per second.
	ScanFrameRate int
	// HistorySize bounds the per-station scan history.
	HistorySize int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Env:       getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "3210"),
		JWTSecret: jwtSecret,
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "scanflow"),
		},
		Workflow: WorkflowConfig{
			PrintAckWait:  time.Duration(getEnvInt("PRINT_ACK_WAIT_SECONDS", 60)) * time.Second,
			ScanFrameRate: getEnvInt("SCAN_FRAME_RATE", 10),
			HistorySize:   getEnvInt("SCAN_HISTORY_SIZE", 10),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
