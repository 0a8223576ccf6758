package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Client holds the terminal client's settings.
type Client struct {
	APIBaseURL         string        `yaml:"api_base_url"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	CredentialsPath    string        `yaml:"credentials_path,omitempty"`
	LogFile            string        `yaml:"log_file,omitempty"`
	LogLevel           string        `yaml:"log_level"`
	SettingsStaleTime  time.Duration `yaml:"settings_stale_time"`
	FeedPollInterval   time.Duration `yaml:"feed_poll_interval"`
	OnlinePollInterval time.Duration `yaml:"online_poll_interval"`
	FeedLimit          int           `yaml:"feed_limit"`
	FocusMode          bool          `yaml:"focus_mode"`
}

// DefaultClient returns the built-in client configuration.
func DefaultClient() Client {
	return Client{
		APIBaseURL:         "http://localhost:8080/api",
		RequestTimeout:     30 * time.Second,
		CredentialsPath:    filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "credentials.json"),
		LogFile:            filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "pomorix.log"),
		LogLevel:           "info",
		SettingsStaleTime:  5 * time.Minute,
		FeedPollInterval:   25 * time.Second,
		OnlinePollInterval: 15 * time.Second,
		FeedLimit:          50,
	}
}

// ClientPath returns the YAML config file location.
func ClientPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "config.yaml")
}

// LoadClient layers defaults, the YAML file at path and the environment.
// A missing or malformed file leaves the defaults in place.
func LoadClient(path string) Client {
	_ = godotenv.Load()

	cfg := DefaultClient()
	if data, err := os.ReadFile(path); err == nil {
		fileCfg := cfg
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			cfg = fileCfg
		}
	}

	cfg.APIBaseURL = getEnv("POMORIX_API_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = getEnvDuration("POMORIX_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CredentialsPath = getEnv("POMORIX_CREDENTIALS", cfg.CredentialsPath)
	cfg.LogFile = getEnv("POMORIX_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("POMORIX_LOG_LEVEL", cfg.LogLevel)
	cfg.SettingsStaleTime = getEnvDuration("POMORIX_SETTINGS_STALE_TIME", cfg.SettingsStaleTime)
	cfg.FeedPollInterval = getEnvDuration("POMORIX_FEED_POLL", cfg.FeedPollInterval)
	cfg.OnlinePollInterval = getEnvDuration("POMORIX_ONLINE_POLL", cfg.OnlinePollInterval)
	cfg.FeedLimit = getEnvInt("POMORIX_FEED_LIMIT", cfg.FeedLimit)
	if cfg.FeedLimit <= 0 || cfg.FeedLimit > 100 {
		cfg.FeedLimit = 50
	}
	return cfg
}
