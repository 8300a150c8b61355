// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinChunkSize is the granularity the resumable upload protocol requires
// for every chunk except the last one.
const MinChunkSize = 256 * 1024

// Environment variable names.
const (
	EnvAppRoot         = "YTUPLOAD_APP_ROOT"
	EnvCredentialsFile = "YTUPLOAD_CREDENTIALS_FILE_PATH"
	EnvClientID        = "YTUPLOAD_GOOGLE_OAUTH_CLIENT_ID"
	EnvClientSecret    = "YTUPLOAD_GOOGLE_OAUTH_CLIENT_SECRET"
	EnvRedirectURI     = "YTUPLOAD_GOOGLE_OAUTH_REDIRECT_URI"
	EnvChunkSize       = "YTUPLOAD_CHUNK_SIZE"
	EnvChunkDelay      = "YTUPLOAD_CHUNK_DELAY"
	EnvRequestTimeout  = "YTUPLOAD_REQUEST_TIMEOUT"
	EnvMaxRetries      = "YTUPLOAD_MAX_RETRIES"
	EnvInitialBackoff  = "YTUPLOAD_INITIAL_BACKOFF"
	EnvMaxBackoff      = "YTUPLOAD_MAX_BACKOFF"
	EnvLockTimeout     = "YTUPLOAD_LOCK_TIMEOUT"
	EnvUploadURL       = "YTUPLOAD_UPLOAD_URL"
	EnvAPIEndpoint     = "YTUPLOAD_API_ENDPOINT"
	EnvAuthURL         = "YTUPLOAD_AUTH_URL"
	EnvTokenURL        = "YTUPLOAD_TOKEN_URL"
)

// DefaultUploadURL is the YouTube Data API resumable insert endpoint for videos.
const DefaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"

var envFileNames = []string{".env.local", ".env"}

// ErrMissing is matched by *MissingError.
var ErrMissing = errors.New("config: missing required value")

// MissingError lists required configuration keys that were not provided.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: missing required value(s): %s", strings.Join(e.Keys, ", "))
}

// Is reports whether target is ErrMissing.
func (e *MissingError) Is(target error) bool { return target == ErrMissing }

// Config holds all application configuration for OAuth and uploads.
type Config struct {
	// AppRoot is the directory CredentialsFile is resolved against (default: working directory)
	AppRoot string `json:"app_root" yaml:"app_root"`
	// CredentialsFile is the location of the token bundle, relative to AppRoot
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`

	// OAuth client settings
	ClientID     string   `json:"client_id" yaml:"client_id"`
	ClientSecret string   `json:"client_secret" yaml:"client_secret"`
	RedirectURI  string   `json:"redirect_uri" yaml:"redirect_uri"`
	Scopes       []string `json:"scopes" yaml:"scopes"`
	// AuthURL and TokenURL override the Google OAuth endpoint when set
	AuthURL  string `json:"auth_url" yaml:"auth_url"`
	TokenURL string `json:"token_url" yaml:"token_url"`

	// UploadURL is the resumable insert endpoint
	UploadURL string `json:"upload_url" yaml:"upload_url"`
	// APIEndpoint overrides the Data API base path (empty uses the library default)
	APIEndpoint string `json:"api_endpoint" yaml:"api_endpoint"`

	// ChunkSize is the number of bytes sent per chunk
	ChunkSize int64 `json:"chunk_size" yaml:"chunk_size"`
	// ChunkDelay is the pause enforced between consecutive chunk submissions
	ChunkDelay time.Duration `json:"-" yaml:"-"`
	// RequestTimeout bounds a single HTTP request (one chunk, one token call)
	RequestTimeout time.Duration `json:"-" yaml:"-"`

	// Retry settings for session initiation
	MaxRetries        int           `json:"max_retries" yaml:"max_retries"`
	InitialBackoff    time.Duration `json:"-" yaml:"-"`
	MaxBackoff        time.Duration `json:"-" yaml:"-"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoff_multiplier"`

	// LockTimeout bounds waiting for the credential file lock
	LockTimeout time.Duration `json:"-" yaml:"-"`
	// ExpirySkew treats tokens as expired this long before their expiry
	ExpirySkew time.Duration `json:"-" yaml:"-"`

	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DefaultConfig returns configuration with safe defaults. Required OAuth
// values and the credentials file are left empty.
func DefaultConfig() *Config {
	return &Config{
		Scopes:            []string{"https://www.googleapis.com/auth/youtube"},
		UploadURL:         DefaultUploadURL,
		ChunkSize:         1 << 20,
		ChunkDelay:        2 * time.Second,
		RequestTimeout:    10 * time.Minute,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		LockTimeout:       5 * time.Second,
		ExpirySkew:        10 * time.Second,
		UserAgent:         "ytupload/1.0",
	}
}

// Load loads configuration from .env files, a config file and the environment,
// applies defaults and validates the result.
// Priority: env vars > config file > .env files > defaults
func Load() (*Config, error) {
	loadEnvFiles()

	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if cfg.AppRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve app root: %w", err)
		}
		cfg.AppRoot = wd
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFiles populates the environment from .env files in the working
// directory. Variables that are already set are left untouched.
func loadEnvFiles() {
	var files []string
	for _, name := range envFileNames {
		if _, err := os.Stat(name); err == nil {
			files = append(files, name)
		}
	}
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// loadFromFile attempts to load config from ytupload.{json,yaml} in the current
// directory or ~/.config/ytupload.
func (c *Config) loadFromFile() error {
	home := os.Getenv("HOME")
	paths := []string{
		"ytupload.json",
		"ytupload.yaml",
		filepath.Join(home, ".config", "ytupload", "ytupload.json"),
		filepath.Join(home, ".config", "ytupload", "ytupload.yaml"),
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := c.decode(path, data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// fileConfig carries durations as strings ("2s") for both file formats.
type fileConfig struct {
	Config         `yaml:",inline"`
	ChunkDelay     string `json:"chunk_delay" yaml:"chunk_delay"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
	InitialBackoff string `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     string `json:"max_backoff" yaml:"max_backoff"`
	LockTimeout    string `json:"lock_timeout" yaml:"lock_timeout"`
	ExpirySkew     string `json:"expiry_skew" yaml:"expiry_skew"`
}

func (c *Config) decode(path string, data []byte) error {
	fc := fileConfig{Config: *c}
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return err
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{fc.ChunkDelay, &fc.Config.ChunkDelay},
		{fc.RequestTimeout, &fc.Config.RequestTimeout},
		{fc.InitialBackoff, &fc.Config.InitialBackoff},
		{fc.MaxBackoff, &fc.Config.MaxBackoff},
		{fc.LockTimeout, &fc.Config.LockTimeout},
		{fc.ExpirySkew, &fc.Config.ExpirySkew},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}

	*c = fc.Config
	return nil
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() error {
	strs := map[string]*string{
		EnvAppRoot:         &c.AppRoot,
		EnvCredentialsFile: &c.CredentialsFile,
		EnvClientID:        &c.ClientID,
		EnvClientSecret:    &c.ClientSecret,
		EnvRedirectURI:     &c.RedirectURI,
		EnvUploadURL:       &c.UploadURL,
		EnvAPIEndpoint:     &c.APIEndpoint,
		EnvAuthURL:         &c.AuthURL,
		EnvTokenURL:        &c.TokenURL,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		EnvChunkDelay:     &c.ChunkDelay,
		EnvRequestTimeout: &c.RequestTimeout,
		EnvInitialBackoff: &c.InitialBackoff,
		EnvMaxBackoff:     &c.MaxBackoff,
		EnvLockTimeout:    &c.LockTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv(EnvChunkSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvChunkSize, err)
		}
		c.ChunkSize = n
	}
	if v := os.Getenv(EnvMaxRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxRetries, err)
		}
		c.MaxRetries = n
	}
	return nil
}

// CredentialsPath returns the credential file location. The configured file
// is always joined onto AppRoot.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.AppRoot, c.CredentialsFile)
}

// Validate checks that required values are present and the rest are consistent.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		key string
		val string
	}{
		{EnvCredentialsFile, c.CredentialsFile},
		{EnvClientID, c.ClientID},
		{EnvClientSecret, c.ClientSecret},
		{EnvRedirectURI, c.RedirectURI},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}

	if c.ChunkSize <= 0 || c.ChunkSize%MinChunkSize != 0 {
		return fmt.Errorf("chunk_size must be a positive multiple of %d", MinChunkSize)
	}
	if c.ChunkDelay < 0 {
		return fmt.Errorf("chunk_delay must be non-negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive")
	}
	if c.UploadURL == "" {
		return fmt.Errorf("upload_url must be set")
	}
	return nil
}
