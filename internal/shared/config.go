package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It is constructed once at startup and handed to each component explicitly.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Storage     StorageConfig     `toml:"storage"`
	Timeouts    TimeoutsConfig    `toml:"timeouts"`
	Transport   TransportConfig   `toml:"transport"`
	Cover       CoverConfig       `toml:"cover"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
	Spotify  SpotifyConfig  `toml:"spotify"`
}

// TelegramConfig contains the bot token issued by BotFather.
type TelegramConfig struct {
	Token string `toml:"token"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Map returns the credentials in the shape expected by the Spotify service constructor.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
	}
}

// ExtractorConfig contains yt-dlp settings.
type ExtractorConfig struct {
	Binary       string `toml:"binary"`
	AutoInstall  bool   `toml:"auto_install"`
	AudioFormat  string `toml:"audio_format"`
	AudioQuality string `toml:"audio_quality"`
}

// StorageConfig contains the root of the transient working area.
type StorageConfig struct {
	WorkDir string `toml:"work_dir"`
}

// TimeoutsConfig bounds each external call, in seconds.
type TimeoutsConfig struct {
	Metadata int `toml:"metadata"`
	Search   int `toml:"search"`
	Download int `toml:"download"`
	Cover    int `toml:"cover"`
	Send     int `toml:"send"`
}

// TransportConfig contains chat transport settings.
type TransportConfig struct {
	MessagesPerSecond float64 `toml:"messages_per_second"`
}

// CoverConfig controls cover art normalization.
type CoverConfig struct {
	MaxSize int `toml:"max_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Seconds converts a configured number of seconds into a [time.Duration].
//
// Non-positive values fall back to def.
func Seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials and the work directory from the process environment.
//
// Called once at startup so no component reads the environment on its own.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("TELEGRAM_BOT_TOKEN"); ok && v != "" {
		c.Credentials.Telegram.Token = v
	}
	if v, ok := lookup("SPOTIFY_CLIENT_ID"); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup("SPOTIFY_CLIENT_SECRET"); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := lookup("TUNEGRAB_WORK_DIR"); ok && v != "" {
		c.Storage.WorkDir = v
	}
}

// Validate reports missing settings required to run the bot.
func (c *Config) Validate() error {
	if c.Credentials.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram token is not set", ErrMissingCredentials)
	}
	if c.Storage.WorkDir == "" {
		return fmt.Errorf("%w: storage.work_dir is empty", ErrInvalidConfig)
	}
	if c.Extractor.AudioFormat == "" || c.Extractor.AudioQuality == "" {
		return fmt.Errorf("%w: extractor audio format and quality are required", ErrInvalidConfig)
	}
	return nil
}
