package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Cache.Dir, err = ExpandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Output.Dir, err = ExpandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	if c.Logging.Dir, err = ExpandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}

	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		c.TMDB.APIKey = strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)

	c.QBittorrent.URL = strings.TrimRight(strings.TrimSpace(c.QBittorrent.URL), "/")

	c.Probe.Binary = strings.TrimSpace(c.Probe.Binary)
	if c.Probe.Binary == "" {
		c.Probe.Binary = "ffprobe"
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	for name, tracker := range c.Trackers {
		tracker.URL = strings.TrimRight(strings.TrimSpace(tracker.URL), "/")
		if tracker.RequestsPerMn <= 0 {
			tracker.RequestsPerMn = 30
		}
		c.Trackers[name] = tracker
	}

	return nil
}
