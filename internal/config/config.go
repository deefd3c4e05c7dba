package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the server and its collaborators need.
// It is loaded once at startup and passed in explicitly; packages do not
// read the environment at call sites.
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string
	JWTSecret      string
	Database       DatabaseConfig
	SMTP           SMTPConfig
	Gemini         GeminiConfig
	LogDir         string
}

// DatabaseConfig holds the postgres connection settings.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// ConnString returns the connection string, preferring an explicit URL.
func (d DatabaseConfig) ConnString() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.Name == "" || d.User == "" {
		return "", fmt.Errorf("database connection details missing: set DATABASE_URL or individual DB_* variables")
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	), nil
}

// SMTPConfig holds the transactional-mail settings. Mail is disabled when
// Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail host is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// GeminiConfig holds the generative-AI provider settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Not an error: production deploys set real environment variables.
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("DB_HOST"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@murmur.chat"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		LogDir: getEnv("LOG_DIR", "logs"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
