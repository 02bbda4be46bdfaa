package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mediaid/internal/config"
	"mediaid/internal/logging"
	"mediaid/internal/matchcache"
	"mediaid/internal/matcher"
	"mediaid/internal/tmdb"
)

// commandContext shares lazily-initialized dependencies across subcommands.
type commandContext struct {
	configFlag   *string
	jsonFlag     *bool
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		jsonFlag:     jsonFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		logger, err := logging.New(logging.Options{
			Level:       level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// openCache opens the lookup cache configured under [cache]. The caller
// owns the returned store and must Close it.
func (c *commandContext) openCache() (*matchcache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return matchcache.Open(cfg.Cache.Dir, logger)
}

// newMatcher wires the TMDB client and the given cache into a Matcher.
func (c *commandContext) newMatcher(cache matcher.LookupCache) (*matcher.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(time.Duration(cfg.Matcher.RequestTimeout)*time.Second))
	if err != nil {
		return nil, err
	}
	return matcher.New(client, cache, matcherOptions(cfg), logger), nil
}

func matcherOptions(cfg *config.Config) matcher.Options {
	return matcher.Options{
		AcceptThreshold: cfg.Matcher.AcceptThreshold,
		ShortenFloor:    cfg.Matcher.ShortenFloor,
		MaxAttempts:     cfg.Matcher.MaxAttempts,
		NetworkRetries:  cfg.Matcher.NetworkRetries,
		HitTTL:          time.Duration(cfg.Cache.HitTTLHours) * time.Hour,
		NegativeTTL:     time.Duration(cfg.Cache.NegativeTTLHours) * time.Hour,
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
