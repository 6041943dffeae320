package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings is the typed view of the service configuration.
// Sources, lowest to highest priority: defaults, config.yaml, environment.
type Settings struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Server struct {
		Port string `mapstructure:"port"`
		// comma separated, "*" allows any origin
		CorsAllowOrigins   string `mapstructure:"cors_allow_origins"`
		RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
	} `mapstructure:"server"`

	Database struct {
		User                   string `mapstructure:"user"`
		Password               string `mapstructure:"password"`
		Host                   string `mapstructure:"host"`
		Port                   string `mapstructure:"port"`
		Name                   string `mapstructure:"name"`
		MaxOpenConns           int    `mapstructure:"max_open_conns"`
		MaxIdleConns           int    `mapstructure:"max_idle_conns"`
		ConnMaxLifetimeSeconds int    `mapstructure:"conn_max_lifetime_seconds"`
		ConnMaxIdleTimeSeconds int    `mapstructure:"conn_max_idle_time_seconds"`
	} `mapstructure:"database"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`

	PubSub struct {
		ProjectId       string `mapstructure:"project_id"`
		Topic           string `mapstructure:"topic"`
		CredentialsJSON string `mapstructure:"credentials_json"`
	} `mapstructure:"pubsub"`

	Outbox struct {
		PublishMaxAttempts        int `mapstructure:"publish_max_attempts"`
		ProcessMaxAttempts        int `mapstructure:"process_max_attempts"`
		ProcessBaseBackoffSeconds int `mapstructure:"process_base_backoff_seconds"`
		ProcessMaxBackoffSeconds  int `mapstructure:"process_max_backoff_seconds"`
	} `mapstructure:"outbox"`

	Report struct {
		CacheEnabled    bool  `mapstructure:"cache_enabled"`
		CacheTTLSeconds int   `mapstructure:"cache_ttl_seconds"`
		SlowMs          int64 `mapstructure:"slow_ms"`
	} `mapstructure:"report"`

	Locale struct {
		DefaultTimezone string `mapstructure:"default_timezone"`
		DefaultCurrency string `mapstructure:"default_currency"`
		PhoneRegion     string `mapstructure:"phone_region"`
	} `mapstructure:"locale"`

	Storage struct {
		Bucket           string `mapstructure:"bucket"`
		URL              string `mapstructure:"url"`
		AccessBaseURL    string `mapstructure:"access_base_url"`
		CredentialsJSON  string `mapstructure:"credentials_json"`
		SignerEmail      string `mapstructure:"signer_email"`
		SignerPrivateKey string `mapstructure:"signer_private_key"`
		ExportPrefix     string `mapstructure:"export_prefix"`
	} `mapstructure:"storage"`

	Auth struct {
		ApiSecret         string `mapstructure:"api_secret"`
		TokenHourLifespan int    `mapstructure:"token_hour_lifespan"`
	} `mapstructure:"auth"`
}

var (
	settings   *Settings
	settingsMu sync.Mutex
)

// env names kept identical to the deployed .env files
var settingsEnv = map[string]string{
	"log.level":                           "LOG_LEVEL",
	"server.port":                         "PORT",
	"server.cors_allow_origins":           "CORS_ALLOW_ORIGINS",
	"server.rate_limit_per_minute":        "RATE_LIMIT_PER_MINUTE",
	"database.user":                       "DB_USER",
	"database.password":                   "DB_PASSWORD",
	"database.host":                       "DB_HOST",
	"database.port":                       "DB_PORT",
	"database.name":                       "DB_NAME",
	"database.max_open_conns":             "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":             "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime_seconds":  "DB_CONN_MAX_LIFETIME_SECONDS",
	"database.conn_max_idle_time_seconds": "DB_CONN_MAX_IDLE_TIME_SECONDS",
	"redis.address":                       "REDIS_ADDRESS",
	"redis.password":                      "REDIS_PASSWORD",
	"pubsub.project_id":                   "PUBSUB_PROJECT_ID",
	"pubsub.topic":                        "PUBSUB_TOPIC",
	"pubsub.credentials_json":             "PUBSUB_CREDENTIALS_JSON",
	"outbox.publish_max_attempts":         "OUTBOX_PUBLISH_MAX_ATTEMPTS",
	"outbox.process_max_attempts":         "OUTBOX_PROCESS_MAX_ATTEMPTS",
	"outbox.process_base_backoff_seconds": "OUTBOX_PROCESS_BASE_BACKOFF_SECONDS",
	"outbox.process_max_backoff_seconds":  "OUTBOX_PROCESS_MAX_BACKOFF_SECONDS",
	"report.cache_enabled":                "ENABLE_REPORT_CACHE",
	"report.cache_ttl_seconds":            "REPORT_CACHE_TTL_SECONDS",
	"report.slow_ms":                      "REPORT_SLOW_MS",
	"locale.default_timezone":             "DEFAULT_TIMEZONE",
	"locale.default_currency":             "DEFAULT_CURRENCY",
	"locale.phone_region":                 "PHONE_REGION",
	"storage.bucket":                      "GCS_BUCKET",
	"storage.url":                         "GCS_URL",
	"storage.access_base_url":             "STORAGE_ACCESS_BASE_URL",
	"storage.credentials_json":            "GCS_CREDENTIALS_JSON",
	"storage.signer_email":                "GCS_SIGNER_EMAIL",
	"storage.signer_private_key":          "GCS_SIGNER_PRIVATE_KEY",
	"storage.export_prefix":               "GCS_EXPORT_PREFIX",
	"auth.api_secret":                     "API_SECRET",
	"auth.token_hour_lifespan":            "TOKEN_HOUR_LIFESPAN",
}

func init() {
	// Load env from .env
	godotenv.Load()
}

func setSettingDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "error")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_allow_origins", "*")
	v.SetDefault("server.rate_limit_per_minute", 0)

	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.name", "gtct_analytics")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.conn_max_idle_time_seconds", 60)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")

	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("pubsub.credentials_json", "")

	v.SetDefault("outbox.publish_max_attempts", 20)
	v.SetDefault("outbox.process_max_attempts", 10)
	v.SetDefault("outbox.process_base_backoff_seconds", 5)
	v.SetDefault("outbox.process_max_backoff_seconds", 600)

	v.SetDefault("report.cache_enabled", false)
	v.SetDefault("report.cache_ttl_seconds", 120)
	v.SetDefault("report.slow_ms", 500)

	v.SetDefault("locale.default_timezone", "Asia/Dubai")
	v.SetDefault("locale.default_currency", "AED")
	v.SetDefault("locale.phone_region", "AE")

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.url", "storage.googleapis.com")
	v.SetDefault("storage.access_base_url", "")
	v.SetDefault("storage.credentials_json", "")
	v.SetDefault("storage.signer_email", "")
	v.SetDefault("storage.signer_private_key", "")
	v.SetDefault("storage.export_prefix", "exports")

	v.SetDefault("auth.api_secret", "")
	v.SetDefault("auth.token_hour_lifespan", 24)
}

// LoadSettings reads defaults, an optional config.yaml and the environment.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	setSettingDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.gtct")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range settingsEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateSettings(s *Settings) error {
	if s.Report.CacheTTLSeconds <= 0 {
		s.Report.CacheTTLSeconds = 120
	}
	if s.Report.SlowMs <= 0 {
		s.Report.SlowMs = 500
	}
	if s.Auth.TokenHourLifespan <= 0 {
		return fmt.Errorf("TOKEN_HOUR_LIFESPAN must be positive, got %d", s.Auth.TokenHourLifespan)
	}
	if s.Outbox.PublishMaxAttempts <= 0 {
		s.Outbox.PublishMaxAttempts = 20
	}
	if s.Outbox.ProcessMaxAttempts <= 0 {
		s.Outbox.ProcessMaxAttempts = 10
	}
	if s.Outbox.ProcessBaseBackoffSeconds <= 0 {
		s.Outbox.ProcessBaseBackoffSeconds = 5
	}
	if s.Outbox.ProcessMaxBackoffSeconds < s.Outbox.ProcessBaseBackoffSeconds {
		s.Outbox.ProcessMaxBackoffSeconds = s.Outbox.ProcessBaseBackoffSeconds
	}
	if s.Server.RateLimitPerMinute < 0 {
		s.Server.RateLimitPerMinute = 0
	}
	s.Locale.DefaultCurrency = strings.ToUpper(strings.TrimSpace(s.Locale.DefaultCurrency))
	return nil
}

// GetSettings returns the process-wide settings, loading them on first use.
// A broken config falls back to defaults so the HTTP server can still start.
func GetSettings() *Settings {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	if settings != nil {
		return settings
	}
	s, err := LoadSettings()
	if err != nil {
		LogError(GetLogger(), "config", "GetSettings", "LoadSettings", nil, err)
		v := viper.New()
		setSettingDefaults(v)
		s = &Settings{}
		_ = v.Unmarshal(s)
	}
	settings = s
	return settings
}

// CorsOrigins splits Server.CorsAllowOrigins.
func (s *Settings) CorsOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.Server.CorsAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// SetSettings replaces the process-wide settings (tests, CLI flags).
func SetSettings(s *Settings) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settings = s
}
