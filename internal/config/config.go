package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Cache contains configuration for the persistent lookup cache.
type Cache struct {
	Dir              string `toml:"dir"`
	HitTTLHours      int    `toml:"hit_ttl_hours"`
	NegativeTTLHours int    `toml:"negative_ttl_hours"`
}

// Matcher contains the tunable parameters of the identity matcher.
type Matcher struct {
	AcceptThreshold float64 `toml:"accept_threshold"`
	ShortenFloor    float64 `toml:"shorten_floor"`
	MaxAttempts     int     `toml:"max_attempts"`
	NetworkRetries  int     `toml:"network_retries"`
	RequestTimeout  int     `toml:"request_timeout"`
}

// QBittorrent contains qBittorrent WebUI connection settings.
type QBittorrent struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Probe controls ffprobe inspection of downloaded content files during a
// scan. Probing fills in codec/resolution/language details the torrent name
// does not carry; it needs the content files to be readable locally.
type Probe struct {
	Enabled bool   `toml:"enabled"`
	Binary  string `toml:"binary"`
	Timeout int    `toml:"timeout"`
}

// Output controls what the extractor writes per torrent.
type Output struct {
	Dir           string `toml:"dir"`
	CreateNFO     bool   `toml:"create_nfo"`
	ExportTorrent bool   `toml:"export_torrent"`
}

// Tracker describes one upload target.
type Tracker struct {
	URL           string `toml:"url"`
	APIKey        string `toml:"api_key"`
	Announce      string `toml:"announce"`
	RequestsPerMn int    `toml:"requests_per_minute"`
}

// Naming controls release-name construction.
type Naming struct {
	DefaultGroup string `toml:"default_group"`
	MultiLabel   string `toml:"multi_label"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Config is the root configuration document.
type Config struct {
	TMDB        TMDB               `toml:"tmdb"`
	Cache       Cache              `toml:"cache"`
	Matcher     Matcher            `toml:"matcher"`
	QBittorrent QBittorrent        `toml:"qbittorrent"`
	Probe       Probe              `toml:"probe"`
	Output      Output             `toml:"output"`
	Trackers    map[string]Tracker `toml:"trackers"`
	Naming      Naming             `toml:"naming"`
	Logging     Logging            `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/mediaid/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediaid.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path,
// creating parent directories. Refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the tool writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Cache.Dir, c.Output.Dir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory and returns an
// absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			trimmed = home
		} else {
			trimmed = filepath.Join(home, trimmed[2:])
		}
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", pathValue, err)
	}
	return filepath.Clean(abs), nil
}
