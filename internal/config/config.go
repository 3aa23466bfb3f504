// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Backend BackendConfig
	Geo     GeoConfig
	Booking BookingConfig
	Media   MediaConfig
	Search  SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name           string
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 0, SSE streams stay open)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins for the web client
}

// BackendConfig holds hosted-backend (Supabase-style) connection configuration.
type BackendConfig struct {
	// URL is the base URL of the hosted backend project.
	URL string
	// APIKey is the publishable key sent with every request; the caller's
	// bearer token is forwarded alongside it so row-level security applies.
	APIKey string
	// StorageBucket is the public bucket listing photos are uploaded to.
	StorageBucket string
	// RequestTimeout bounds individual read/write requests (default: 15s).
	RequestTimeout time.Duration
}

// GeoConfig holds third-party geolocation service configuration.
type GeoConfig struct {
	// NominatimURL is the reverse-geocoding and place-search endpoint.
	NominatimURL string
	// IPLookupURL is the IP-based location fallback endpoint.
	IPLookupURL string
}

// BookingConfig holds calendar booking configuration.
type BookingConfig struct {
	// SimulatedDelay approximates the upstream calendar API latency.
	SimulatedDelay time.Duration
}

// MediaConfig holds listing photo processing configuration.
type MediaConfig struct {
	// MaxWidth is the bound photos are downscaled to before upload.
	MaxWidth int
	// JPEGQuality for re-encoded uploads.
	JPEGQuality int
}

// SearchConfig holds live-search configuration.
type SearchConfig struct {
	// DebounceQuiet is how long keyword input must be stable before a query fires.
	DebounceQuiet time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	serverName := flag.String("server-name", "", "Name for the server")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := flag.String("allowed-origins", "", "Comma-separated CORS origins")

	backendURL := flag.String("backend-url", "", "Hosted backend base URL")
	backendKey := flag.String("backend-key", "", "Hosted backend publishable API key")
	storageBucket := flag.String("storage-bucket", "", "Public storage bucket for listing photos")
	requestTimeout := flag.String("backend-timeout", "", "Backend request timeout (default: 15s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name:           getConfigValue(*serverName, "SERVER_NAME", "DozenDreams Server"),
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
		},
		Backend: BackendConfig{
			URL:           getConfigValue(*backendURL, "BACKEND_URL", ""),
			APIKey:        getConfigValue(*backendKey, "BACKEND_API_KEY", ""),
			StorageBucket: getConfigValue(*storageBucket, "STORAGE_BUCKET", "listingspublic"),
		},
		Geo: GeoConfig{
			NominatimURL: getConfigValue("", "NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			IPLookupURL:  getConfigValue("", "IP_LOOKUP_URL", "https://ipapi.co/json/"),
		},
		Booking: BookingConfig{
			SimulatedDelay: getDurationConfigValue("", "BOOKING_SIMULATED_DELAY", 1200*time.Millisecond),
		},
		Media: MediaConfig{
			MaxWidth:    getIntConfigValue("", "MEDIA_MAX_WIDTH", 1600),
			JPEGQuality: getIntConfigValue("", "MEDIA_JPEG_QUALITY", 82),
		},
		Search: SearchConfig{
			DebounceQuiet: getDurationConfigValue("", "SEARCH_DEBOUNCE_QUIET", 400*time.Millisecond),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	// Write timeout stays zero: SSE streams outlive any fixed deadline.
	cfg.Server.WriteTimeout = 0

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	backendTimeoutStr := getConfigValue(*requestTimeout, "BACKEND_REQUEST_TIMEOUT", "15s")
	backendTimeoutDuration, err := time.ParseDuration(backendTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid backend timeout %q: %w", backendTimeoutStr, err)
	}
	cfg.Backend.RequestTimeout = backendTimeoutDuration

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Backend.URL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.Backend.APIKey == "" {
		return errors.New("BACKEND_API_KEY is required")
	}

	return nil
}

// splitList splits a comma-separated value into trimmed entries.
func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue returns a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey string, defaultValue time.Duration) time.Duration {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return defaultValue
	}
	return d
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
