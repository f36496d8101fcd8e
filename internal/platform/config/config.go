package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultStorageDriver    = StorageDriverMemory
	defaultAnalyticsTopic   = "storefront-events"
	defaultSessionHeader    = "X-Session-Key"
	defaultPaymentMethod    = "cash_on_delivery"
	defaultCommentMaxLength = 1000
)

// Storage drivers understood by the dependency container.
const (
	StorageDriverMemory    = "memory"
	StorageDriverFirestore = "firestore"
)

var (
	defaultAdminRoles = []string{"admin", "staff"}
	headerNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Firebase  FirebaseConfig
	Firestore FirestoreConfig
	Analytics AnalyticsConfig
	Auth      AuthConfig
	Orders    OrdersConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// AnalyticsConfig controls the Pub/Sub analytics sink.
type AnalyticsConfig struct {
	Enabled   bool
	ProjectID string
	Topic     string
}

// AuthConfig controls identity resolution.
type AuthConfig struct {
	SessionHeader string
	AdminRoles    []string
}

// OrdersConfig carries order defaults.
type OrdersConfig struct {
	DefaultPaymentMethod string
	CommentMaxLength     int
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides
// and environment variables.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Config{}, err
		}
	}

	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(stringWithDefault(lookup, "API_STORAGE_DRIVER", defaultStorageDriver)),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "API_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "API_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "API_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "API_FIRESTORE_EMULATOR_HOST", ""),
		},
		Analytics: AnalyticsConfig{
			Enabled:   boolWithDefault(lookup, "API_ANALYTICS_ENABLED", false),
			ProjectID: stringWithDefault(lookup, "API_ANALYTICS_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "API_ANALYTICS_TOPIC", defaultAnalyticsTopic),
		},
		Auth: AuthConfig{
			SessionHeader: strings.TrimSpace(stringWithDefault(lookup, "API_SESSION_HEADER", defaultSessionHeader)),
			AdminRoles:    csvWithDefault(lookup, "API_AUTH_ADMIN_ROLES", defaultAdminRoles),
		},
		Orders: OrdersConfig{
			DefaultPaymentMethod: strings.ToLower(stringWithDefault(lookup, "API_ORDERS_DEFAULT_PAYMENT_METHOD", defaultPaymentMethod)),
			CommentMaxLength:     intWithDefault(lookup, "API_COMMENTS_MAX_LENGTH", defaultCommentMaxLength),
		},
	}

	// Firestore and analytics projects default to the Firebase project when unspecified.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Analytics.ProjectID == "" {
		cfg.Analytics.ProjectID = cfg.Firebase.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	switch cfg.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	default:
		missing = append(missing, "Storage.Driver")
	}
	if cfg.Analytics.Enabled {
		if strings.TrimSpace(cfg.Analytics.Topic) == "" {
			missing = append(missing, "Analytics.Topic")
		}
		if cfg.Analytics.ProjectID == "" {
			missing = append(missing, "Analytics.ProjectID")
		}
	}
	if !headerNamePattern.MatchString(cfg.Auth.SessionHeader) {
		missing = append(missing, "Auth.SessionHeader")
	}
	if len(cfg.Auth.AdminRoles) == 0 {
		missing = append(missing, "Auth.AdminRoles")
	}
	if cfg.Orders.CommentMaxLength <= 0 {
		missing = append(missing, "Orders.CommentMaxLength")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
