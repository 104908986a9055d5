// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	DataDir           string
	AllowedOrigins    []string
	EntrezEmail       string  // Contact email sent with every NCBI E-Utilities call
	GeminiAPIKey      string  // Empty means the generative stage runs in fallback mode
	GeminiModel       string
	MatchThreshold    float64 // Minimum similarity score to accept a catalog match
	SessionTTLMinutes int
	StreamDelayMS     int // Pause between chat stream chunks, 0 disables
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               getEnvWithDefault("ENV", "dev"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		DataDir:           getEnvWithDefault("DATA_DIR", "data"),
		AllowedOrigins:    getListEnvWithDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		EntrezEmail:       getEnvWithDefault("ENTREZ_EMAIL", "contact@medperplexity.in"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvWithDefault("GEMINI_MODEL", "gemini-flash-lite-latest"),
		MatchThreshold:    getFloatEnvWithDefault("MATCH_THRESHOLD", 85.0),
		SessionTTLMinutes: getIntEnvWithDefault("SESSION_TTL_MINUTES", 60),
		StreamDelayMS:     getIntEnvWithDefault("STREAM_DELAY_MS", 50),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate ENV
	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate LOG_DIR
	if err := validateLogDir(cfg.LogDir); err != nil {
		return fmt.Errorf("invalid LOG_DIR: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	// Validate LOG_RETENTION_WEEKS
	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	// Validate MAX_LOG_FILE_SIZE
	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	// Validate DATA_DIR
	if err := validateDataDir(cfg.DataDir); err != nil {
		return fmt.Errorf("invalid DATA_DIR: %w", err)
	}

	// Validate ALLOWED_ORIGINS
	if err := validateAllowedOrigins(cfg.AllowedOrigins); err != nil {
		return fmt.Errorf("invalid ALLOWED_ORIGINS: %w", err)
	}

	// Validate ENTREZ_EMAIL
	if err := validateEntrezEmail(cfg.EntrezEmail); err != nil {
		return fmt.Errorf("invalid ENTREZ_EMAIL: %w", err)
	}

	// Validate MATCH_THRESHOLD
	if err := validateMatchThreshold(cfg.MatchThreshold); err != nil {
		return fmt.Errorf("invalid MATCH_THRESHOLD: %w", err)
	}

	// Validate SESSION_TTL_MINUTES
	if err := validateSessionTTL(cfg.SessionTTLMinutes); err != nil {
		return fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}

	// Validate STREAM_DELAY_MS
	if err := validateStreamDelay(cfg.StreamDelayMS); err != nil {
		return fmt.Errorf("invalid STREAM_DELAY_MS: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	// Check for localhost/loopback addresses first
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		// This is acceptable for development
		return nil
	}

	// Check if it's a valid IP address
	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Check for private network ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
	ip := net.ParseIP(address)
	if ip != nil && !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateLogDir validates the LOG_DIR environment variable
func validateLogDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("LOG_DIR cannot be empty")
	}

	if strings.ContainsAny(dir, "\x00") {
		return fmt.Errorf("LOG_DIR contains invalid characters: %s", dir)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateDataDir validates the DATA_DIR environment variable
func validateDataDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}

	if strings.ContainsAny(dir, "\x00") {
		return fmt.Errorf("DATA_DIR contains invalid characters: %s", dir)
	}

	return nil
}

// validateAllowedOrigins validates the ALLOWED_ORIGINS environment variable
func validateAllowedOrigins(origins []string) error {
	if len(origins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS cannot be empty")
	}

	for _, origin := range origins {
		parsed, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q is not a valid URL: %w", origin, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q must use http or https", origin)
		}
		if parsed.Host == "" {
			return fmt.Errorf("ALLOWED_ORIGINS entry %q is missing a host", origin)
		}
	}

	return nil
}

// validateEntrezEmail validates the ENTREZ_EMAIL environment variable
func validateEntrezEmail(email string) error {
	if email == "" {
		return fmt.Errorf("ENTREZ_EMAIL cannot be empty, NCBI requires a contact address")
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("ENTREZ_EMAIL must be a valid email address: %w", err)
	}

	return nil
}

// validateMatchThreshold validates the MATCH_THRESHOLD environment variable
func validateMatchThreshold(threshold float64) error {
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be between 0 and 100, got: %.1f", threshold)
	}

	return nil
}

// validateSessionTTL validates the SESSION_TTL_MINUTES environment variable
func validateSessionTTL(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got: %d", minutes)
	}

	if minutes > 24*60 { // 1 day maximum
		return fmt.Errorf("SESSION_TTL_MINUTES is too large (max 1440), got: %d", minutes)
	}

	return nil
}

// validateStreamDelay validates the STREAM_DELAY_MS environment variable
func validateStreamDelay(ms int) error {
	if ms < 0 {
		return fmt.Errorf("STREAM_DELAY_MS cannot be negative, got: %d", ms)
	}

	if ms > 2000 { // anything slower makes the chat unusable
		return fmt.Errorf("STREAM_DELAY_MS is too large (max 2000), got: %d", ms)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnvWithDefault gets a comma-separated environment variable with a default value
func getListEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"DATA_DIR",
		"ALLOWED_ORIGINS",
		"ENTREZ_EMAIL",
		"GEMINI_API_KEY",
		"GEMINI_MODEL",
		"MATCH_THRESHOLD",
		"SESSION_TTL_MINUTES",
		"STREAM_DELAY_MS",
	}
}

// ValidateAllEnvVars checks if all required environment variables are set
func ValidateAllEnvVars() error {
	requiredVars := []string{"PORT"} // Only PORT is truly required
	missingVars := []string{}

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missingVars = append(missingVars, varName)
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
