package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnv = []string{
	EnvAppRoot, EnvCredentialsFile, EnvClientID, EnvClientSecret, EnvRedirectURI,
	EnvChunkSize, EnvChunkDelay, EnvRequestTimeout, EnvMaxRetries, EnvInitialBackoff,
	EnvMaxBackoff, EnvLockTimeout, EnvUploadURL, EnvAPIEndpoint, EnvAuthURL, EnvTokenURL,
}

// isolate runs the test in an empty directory with no YTUPLOAD_* variables
// and a HOME without config files.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvCredentialsFile, "secrets/youtube.json")
	t.Setenv(EnvClientID, "client-id")
	t.Setenv(EnvClientSecret, "client-secret")
	t.Setenv(EnvRedirectURI, "http://localhost/callback")
}

func TestLoad_MissingRequired(t *testing.T) {
	isolate(t)
	t.Setenv(EnvClientID, "client-id")

	_, err := Load()
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("Load() error = %v, want ErrMissing", err)
	}

	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Load() error type = %T, want *MissingError", err)
	}
	want := []string{EnvCredentialsFile, EnvClientSecret, EnvRedirectURI}
	if len(missing.Keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", missing.Keys, want)
	}
	for i := range want {
		if missing.Keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, missing.Keys[i], want[i])
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	t.Setenv(EnvChunkSize, "2097152")
	t.Setenv(EnvChunkDelay, "500ms")
	t.Setenv(EnvMaxRetries, "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ClientID != "client-id" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if cfg.ChunkSize != 2<<20 {
		t.Errorf("ChunkSize = %d, want %d", cfg.ChunkSize, 2<<20)
	}
	if cfg.ChunkDelay != 500*time.Millisecond {
		t.Errorf("ChunkDelay = %v, want 500ms", cfg.ChunkDelay)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}

	// AppRoot defaults to the working directory.
	wd, _ := os.Getwd()
	if cfg.AppRoot != wd {
		t.Errorf("AppRoot = %q, want %q", cfg.AppRoot, wd)
	}
	if got, want := cfg.CredentialsPath(), filepath.Join(wd, "secrets", "youtube.json"); got != want {
		t.Errorf("CredentialsPath() = %q, want %q (dir %s)", got, want, dir)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.ChunkSize != def.ChunkSize || cfg.ChunkDelay != def.ChunkDelay {
		t.Errorf("chunking = %d/%v, want %d/%v", cfg.ChunkSize, cfg.ChunkDelay, def.ChunkSize, def.ChunkDelay)
	}
	if cfg.UploadURL != DefaultUploadURL {
		t.Errorf("UploadURL = %q", cfg.UploadURL)
	}
}

func TestLoad_AppRootOverride(t *testing.T) {
	isolate(t)
	setRequired(t)
	root := t.TempDir()
	t.Setenv(EnvAppRoot, root)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(root, "secrets", "youtube.json"); cfg.CredentialsPath() != want {
		t.Errorf("CredentialsPath() = %q, want %q", cfg.CredentialsPath(), want)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	env := "YTUPLOAD_CREDENTIALS_FILE_PATH=creds.json\n" +
		"YTUPLOAD_GOOGLE_OAUTH_CLIENT_ID=from-dotenv\n" +
		"YTUPLOAD_GOOGLE_OAUTH_CLIENT_SECRET=secret\n" +
		"YTUPLOAD_GOOGLE_OAUTH_REDIRECT_URI=http://localhost/cb\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}
	// .env never overrides the real environment.
	t.Setenv(EnvClientSecret, "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "from-dotenv" {
		t.Errorf("ClientID = %q, want from-dotenv", cfg.ClientID)
	}
	if cfg.ClientSecret != "from-env" {
		t.Errorf("ClientSecret = %q, want from-env", cfg.ClientSecret)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	t.Setenv(EnvClientID, "from-env")

	yml := `client_id: from-file
chunk_size: 524288
chunk_delay: 250ms
lock_timeout: 1s
scopes:
  - https://www.googleapis.com/auth/youtube.upload
`
	if err := os.WriteFile(filepath.Join(dir, "ytupload.yaml"), []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "from-env" {
		t.Errorf("ClientID = %q, env must win over file", cfg.ClientID)
	}
	if cfg.ChunkSize != 512*1024 {
		t.Errorf("ChunkSize = %d", cfg.ChunkSize)
	}
	if cfg.ChunkDelay != 250*time.Millisecond || cfg.LockTimeout != time.Second {
		t.Errorf("durations = %v/%v", cfg.ChunkDelay, cfg.LockTimeout)
	}
	if len(cfg.Scopes) != 1 || cfg.Scopes[0] != "https://www.googleapis.com/auth/youtube.upload" {
		t.Errorf("Scopes = %v", cfg.Scopes)
	}
	if cfg.RequestTimeout != DefaultConfig().RequestTimeout {
		t.Errorf("RequestTimeout = %v, unset file keys keep defaults", cfg.RequestTimeout)
	}
}

func TestLoad_JSONFile(t *testing.T) {
	dir := isolate(t)
	js := `{
    "credentials_file": "youtube.json",
    "client_id": "id",
    "client_secret": "secret",
    "redirect_uri": "http://localhost/cb",
    "max_backoff": "1m"
}`
	if err := os.WriteFile(filepath.Join(dir, "ytupload.json"), []byte(js), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CredentialsFile != "youtube.json" || cfg.MaxBackoff != time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	setRequired(t)
	if err := os.WriteFile(filepath.Join(dir, "ytupload.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for malformed config file")
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	isolate(t)
	setRequired(t)
	t.Setenv(EnvChunkDelay, "soon")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for bad duration")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.CredentialsFile = "creds.json"
		c.ClientID = "id"
		c.ClientSecret = "secret"
		c.RedirectURI = "http://localhost/cb"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero delay", func(c *Config) { c.ChunkDelay = 0 }, false},
		{"chunk not multiple of 256KiB", func(c *Config) { c.ChunkSize = 1000 }, true},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }, true},
		{"negative delay", func(c *Config) { c.ChunkDelay = -time.Second }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"max below initial", func(c *Config) { c.MaxBackoff = time.Millisecond }, true},
		{"multiplier", func(c *Config) { c.BackoffMultiplier = 1 }, true},
		{"no upload url", func(c *Config) { c.UploadURL = "" }, true},
		{"blank secret", func(c *Config) { c.ClientSecret = "  " }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
