package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would make the tool
// misbehave at runtime. Credentials are checked at client construction, not
// here, so read-only commands work without them.
func (c *Config) Validate() error {
	var problems []string

	if c.Matcher.AcceptThreshold <= 0 || c.Matcher.AcceptThreshold > 1 {
		problems = append(problems, fmt.Sprintf("matcher.accept_threshold must be in (0,1], got %v", c.Matcher.AcceptThreshold))
	}
	if c.Matcher.ShortenFloor <= 0 || c.Matcher.ShortenFloor > 1 {
		problems = append(problems, fmt.Sprintf("matcher.shorten_floor must be in (0,1], got %v", c.Matcher.ShortenFloor))
	}
	if c.Matcher.MaxAttempts < 1 {
		problems = append(problems, "matcher.max_attempts must be at least 1")
	}
	if c.Matcher.NetworkRetries < 0 {
		problems = append(problems, "matcher.network_retries must not be negative")
	}
	if c.Matcher.RequestTimeout < 1 {
		problems = append(problems, "matcher.request_timeout must be at least 1 second")
	}

	if c.Probe.Enabled && c.Probe.Timeout < 1 {
		problems = append(problems, "probe.timeout must be at least 1 second")
	}

	if c.Cache.HitTTLHours < 1 {
		problems = append(problems, "cache.hit_ttl_hours must be at least 1")
	}
	if c.Cache.NegativeTTLHours < 1 {
		problems = append(problems, "cache.negative_ttl_hours must be at least 1")
	}

	if strings.TrimSpace(c.TMDB.BaseURL) == "" {
		problems = append(problems, "tmdb.base_url must not be empty")
	}

	for name, tracker := range c.Trackers {
		if strings.TrimSpace(tracker.URL) == "" {
			problems = append(problems, fmt.Sprintf("trackers.%s.url must not be empty", name))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
