package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadClientLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("api_base_url: http://example.test/api\nfeed_poll_interval: 40s\nfocus_mode: true\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("POMORIX_FEED_POLL", "")
	t.Setenv("POMORIX_API_URL", "")
	t.Setenv("POMORIX_ONLINE_POLL", "5s")

	cfg := LoadClient(path)
	if cfg.APIBaseURL != "http://example.test/api" {
		t.Fatalf("expected base url from file, got %s", cfg.APIBaseURL)
	}
	if cfg.FeedPollInterval != 40*time.Second {
		t.Fatalf("expected feed poll from file, got %v", cfg.FeedPollInterval)
	}
	if cfg.OnlinePollInterval != 5*time.Second {
		t.Fatalf("expected online poll from env, got %v", cfg.OnlinePollInterval)
	}
	if !cfg.FocusMode {
		t.Fatal("expected focus mode from file")
	}
	if cfg.SettingsStaleTime != 5*time.Minute {
		t.Fatalf("expected default stale time, got %v", cfg.SettingsStaleTime)
	}
}

func TestLoadClientIgnoresMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("POMORIX_API_URL", "")

	cfg := LoadClient(path)
	if cfg.APIBaseURL != DefaultClient().APIBaseURL {
		t.Fatalf("expected default base url, got %s", cfg.APIBaseURL)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	got := getEnvList("CORS_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected list: %v", got)
	}
}
