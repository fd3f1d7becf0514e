package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Spreadsheet SpreadsheetConfig
	App         AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SpreadsheetConfig holds the Google Sheets wiring: which spreadsheet to
// sync and which tabs carry each source format.
type SpreadsheetConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	MasterSheet     string
	GroupBuySheet   string
	FormSheet       string
	WebhookToken    string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment     string
	LogLevel        string
	RedisURL        string
	NATSURL         string
	SendGridAPIKey  string
	MailFromName    string
	MailFromAddress string
	PaymentAPIURL   string
	PaymentAPIKey   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "sheet_sync_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Spreadsheet: SpreadsheetConfig{
			SpreadsheetID:   getEnv("SPREADSHEET_ID", ""),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			MasterSheet:     getEnv("MASTER_SHEET_NAME", "Master"),
			GroupBuySheet:   getEnv("GROUP_BUY_SHEET_NAME", "接龍"),
			FormSheet:       getEnv("FORM_SHEET_NAME", "表單回應"),
			WebhookToken:    getEnv("WEBHOOK_TOKEN", ""),
		},
		App: AppConfig{
			Environment:     getEnv("APP_ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			RedisURL:        getEnv("REDIS_URL", ""),
			NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
			SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
			MailFromName:    getEnv("MAIL_FROM_NAME", "訂單小幫手"),
			MailFromAddress: getEnv("MAIL_FROM_ADDRESS", ""),
			PaymentAPIURL:   getEnv("PAYMENT_API_URL", ""),
			PaymentAPIKey:   getEnv("PAYMENT_API_KEY", ""),
		},
	}

	if config.Spreadsheet.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
