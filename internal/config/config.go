// Package config handles application configuration loading from a YAML file and environment variables.
package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "ideascentral/internal/utils"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable that points at the YAML config file
const ConfigFileEnv = "IDEAS_CONFIG_FILE"

// Store backends
const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
)

// AuthConfig represents authentication-related configuration
type AuthConfig struct {
	SignupsDisabled bool     `json:"signups_disabled" yaml:"signups_disabled"`
	AllowedDomains  []string `json:"allowed_domains,omitempty" yaml:"allowed_domains,omitempty"`
	// SignupRoles lists the roles self-registration may request. Anything else needs an admin.
	SignupRoles []string `json:"signup_roles,omitempty" yaml:"signup_roles,omitempty"`
}

// SystemConfig represents system-wide configuration
type SystemConfig struct {
	Auth AuthConfig `json:"auth" yaml:"auth"`
}

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Database      DatabaseConfig      `json:"database" yaml:"database"`
	Store         StoreConfig         `json:"store" yaml:"store"`
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`
	Email         EmailConfig         `json:"email" yaml:"email"`
	Notifications NotificationsConfig `json:"notifications" yaml:"notifications"`
	Evaluation    EvaluationConfig    `json:"evaluation" yaml:"evaluation"`
	RateLimit     RateLimitConfig     `json:"rate_limit" yaml:"rate_limit"`
	System        *SystemConfig       `json:"system,omitempty" yaml:"system,omitempty"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port          string   `json:"port" yaml:"port"`
	SessionSecret string   `json:"session_secret" yaml:"session_secret"`
	Debug         bool     `json:"debug" yaml:"debug"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	AppBaseURL    string   `json:"app_base_url" yaml:"app_base_url"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins"`
}

// StoreConfig selects the persistence backend once at start-up
type StoreConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "memory" or "postgres", default: "memory"
	// ApplySchema runs the bundled idempotent schema against postgres on start.
	ApplySchema bool `json:"apply_schema" yaml:"apply_schema"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "ideas-central"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	UseAutoSDK     bool              `json:"use_auto_sdk" yaml:"use_auto_sdk"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL             string        `json:"url" yaml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// EmailConfig represents email/SMTP configuration
type EmailConfig struct {
	SMTP    SMTPConfig `json:"smtp" yaml:"smtp"`
	Enabled bool       `json:"enabled" yaml:"enabled"`
}

// SMTPConfig represents SMTP server configuration
type SMTPConfig struct {
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
	FromAddress string `json:"from_address" yaml:"from_address"`
	FromName    string `json:"from_name" yaml:"from_name"`
}

// NotificationsConfig controls what happens after an idea is decided
type NotificationsConfig struct {
	MentorContactEmail string `json:"mentor_contact_email" yaml:"mentor_contact_email"`
	// ChannelURLs are shoutrrr service URLs that receive a one-line summary of each decision.
	ChannelURLs    []string      `json:"channel_urls,omitempty" yaml:"channel_urls,omitempty"`
	ChannelTimeout time.Duration `json:"channel_timeout" yaml:"channel_timeout"`
}

// EvaluationConfig holds the evaluation workflow policy knobs
type EvaluationConfig struct {
	AllowReevaluation bool          `json:"allow_reevaluation" yaml:"allow_reevaluation"`
	IdempotencyWindow time.Duration `json:"idempotency_window" yaml:"idempotency_window"`
}

// RateLimitConfig bounds write traffic per caller
type RateLimitConfig struct {
	Enabled           bool    `json:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// IsSignupDisabled returns whether self-registration is disabled
func (c *Config) IsSignupDisabled() bool {
	if c.System == nil {
		return false
	}
	return c.System.Auth.SignupsDisabled
}

// IsDomainAllowed reports whether the email domain may self-register.
// An empty allow-list admits every domain.
func (c *Config) IsDomainAllowed(email string) bool {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !contextutils.IsValidEmail(normalized) {
		return false
	}
	if c.System == nil || len(c.System.Auth.AllowedDomains) == 0 {
		return true
	}

	domain := normalized[strings.LastIndex(normalized, "@")+1:]
	for _, allowed := range c.System.Auth.AllowedDomains {
		if strings.ToLower(strings.TrimSpace(allowed)) == domain {
			return true
		}
	}
	return false
}

// IsSignupRoleAllowed reports whether self-registration may request the given role
func (c *Config) IsSignupRoleAllowed(role string) bool {
	roles := DefaultSignupRoles
	if c.System != nil && len(c.System.Auth.SignupRoles) > 0 {
		roles = c.System.Auth.SignupRoles
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
// and finally fills in defaults for anything left unset.
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// ValidateServer checks the settings the HTTP server cannot start without.
// Cookie sessions signed with an empty key are forgeable, so a secret is required outside tests.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Server.SessionSecret) == "" && !c.IsTest {
		return contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityFatal,
			"server.session_secret must be set", "set it in the config file or via SERVER_SESSION_SECRET")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreBackendMemory
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}
	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = DefaultServiceName
	}
	if c.OpenTelemetry.Endpoint == "" {
		c.OpenTelemetry.Endpoint = "localhost:4317"
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
	if c.Notifications.MentorContactEmail == "" {
		c.Notifications.MentorContactEmail = DefaultMentorContactEmail
	}
	if c.Notifications.ChannelTimeout == 0 {
		c.Notifications.ChannelTimeout = DefaultChannelTimeout
	}
	if c.Evaluation.IdempotencyWindow <= 0 {
		c.Evaluation.IdempotencyWindow = DefaultIdempotencyWindow
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = DefaultRateLimitBurst
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

var durationType = reflect.TypeOf(time.Duration(0))

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables.
// The variable name is the upper-cased yaml tag path joined by underscores, e.g. STORE_BACKEND.
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}
		envVal := os.Getenv(envKey)

		if field.Type() == durationType {
			if envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal != "" && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(envVal, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				field.Set(reflect.ValueOf(parts))
			}
		case reflect.Struct:
			overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
		case reflect.Ptr:
			if field.Type().Elem().Kind() != reflect.Struct {
				continue
			}
			if field.IsNil() {
				// Allocate only when something below it is actually set.
				candidate := reflect.New(field.Type().Elem())
				overrideStructFromEnvWithPrefix(candidate.Interface(), envKey)
				if !candidate.Elem().IsZero() {
					field.Set(candidate)
				}
				continue
			}
			overrideStructFromEnvWithPrefix(field.Interface(), envKey)
		}
	}
}

// loadConfigWithOverrides loads the config file named by IDEAS_CONFIG_FILE, falling back to
// config.yaml in the working directory. A missing default file yields an empty config.
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile("config.yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
