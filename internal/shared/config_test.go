package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tunegrab.db" {
			t.Errorf("expected database path ./tunegrab.db, got %s", config.Database.Path)
		}

		if config.Storage.WorkDir != "./downloads" {
			t.Errorf("expected work dir ./downloads, got %s", config.Storage.WorkDir)
		}

		if config.Extractor.AudioFormat != "mp3" || config.Extractor.AudioQuality != "192" {
			t.Errorf("expected mp3 @ 192, got %s @ %s", config.Extractor.AudioFormat, config.Extractor.AudioQuality)
		}
		if config.Extractor.Binary != "" {
			t.Errorf("expected empty binary so go-ytdlp resolves the executable, got %q", config.Extractor.Binary)
		}

		if config.Timeouts.Download != 300 {
			t.Errorf("expected download timeout 300, got %d", config.Timeouts.Download)
		}

		if config.Cover.MaxSize != 640 {
			t.Errorf("expected cover max size 640, got %d", config.Cover.MaxSize)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.telegram]
token = "123:abc"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[storage]
work_dir = "/var/lib/tunegrab"

[timeouts]
download = 60
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Telegram.Token != "123:abc" {
			t.Errorf("expected telegram token 123:abc, got %s", config.Credentials.Telegram.Token)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Storage.WorkDir != "/var/lib/tunegrab" {
			t.Errorf("expected work dir /var/lib/tunegrab, got %s", config.Storage.WorkDir)
		}
		if config.Timeouts.Download != 60 {
			t.Errorf("expected download timeout 60, got %d", config.Timeouts.Download)
		}

		t.Run("keeps defaults for missing keys", func(t *testing.T) {
			if config.Timeouts.Metadata != 15 {
				t.Errorf("expected default metadata timeout 15, got %d", config.Timeouts.Metadata)
			}
			if config.Extractor.AudioFormat != "mp3" {
				t.Errorf("expected default audio format mp3, got %s", config.Extractor.AudioFormat)
			}
		})
	})

	t.Run("LoadConfig fails for missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"TELEGRAM_BOT_TOKEN":    "env-token",
			"SPOTIFY_CLIENT_ID":     "env-id",
			"SPOTIFY_CLIENT_SECRET": "",
			"TUNEGRAB_WORK_DIR":     "/tmp/work",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		config := DefaultConfig()
		config.Credentials.Spotify.ClientSecret = "file-secret"
		config.ApplyEnv(lookup)

		if config.Credentials.Telegram.Token != "env-token" {
			t.Errorf("expected env token, got %s", config.Credentials.Telegram.Token)
		}
		if config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "file-secret" {
			t.Errorf("empty env value should not override, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Storage.WorkDir != "/tmp/work" {
			t.Errorf("expected env work dir, got %s", config.Storage.WorkDir)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config.Credentials.Telegram.Token = "123:abc"
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		config.Storage.WorkDir = ""
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSeconds(t *testing.T) {
	if got := Seconds(5, time.Minute); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if got := Seconds(0, time.Minute); got != time.Minute {
		t.Errorf("expected fallback 1m, got %v", got)
	}
}
