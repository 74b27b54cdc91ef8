package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Report snapshot cache
	ReportCacheDir string

	// Auth
	JWTSecret string

	// AMQP (receipt scan queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// OCR gateway
	OCRGatewayURL string
	OCRAPIKey     string
	OCRModel      string
	OCRTimeout    time.Duration

	// Receipt image storage (Google Drive)
	DriveFolderID         string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	ReceiptURLTTL         time.Duration
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8082"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/dailyboard.db"),
		ReportCacheDir: getEnv("REPORT_CACHE_DIR", "./data/reports"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dailyboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "receipt_scans"),

		OCRGatewayURL: getEnv("OCR_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
		OCRAPIKey:     getEnv("OCR_API_KEY", ""),
		OCRModel:      getEnv("OCR_MODEL", "google/gemini-2.5-flash"),
		OCRTimeout:    getEnvDuration("OCR_TIMEOUT", 30*time.Second),

		DriveFolderID:         getEnv("DRIVE_FOLDER_ID", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ReceiptURLTTL:         getEnvDuration("RECEIPT_URL_TTL", time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET too short: need at least 16 characters")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.OCRGatewayURL != "" {
		if parsedURL, err := url.Parse(c.OCRGatewayURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid OCR gateway URL '%s'", c.OCRGatewayURL))
		}
	}
	if c.OCRTimeout < time.Second || c.OCRTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid OCR timeout %v: must be between 1s and 5m", c.OCRTimeout))
	}

	if c.ReceiptURLTTL < time.Minute || c.ReceiptURLTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid receipt URL TTL %v: must be between 1m and 24h", c.ReceiptURLTTL))
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// OCREnabled reports whether the OCR gateway is configured.
func (c *Config) OCREnabled() bool {
	return c.OCRGatewayURL != "" && c.OCRAPIKey != ""
}

// DriveEnabled reports whether receipt image storage is configured.
func (c *Config) DriveEnabled() bool {
	return c.GoogleCredentialsJSON != "" || c.GoogleCredentialsFile != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
