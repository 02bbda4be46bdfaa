package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediaid/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}

			if err := config.WriteSample(target); err != nil {
				if !overwrite {
					if _, statErr := os.Stat(target); statErr == nil {
						return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
					}
				}
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set tmdb.api_key (or export TMDB_API_KEY) before running mediaid.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"path":   ctx.configPath,
					"config": redactedConfig(cfg),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			fmt.Fprintln(out)

			rows := [][]string{
				{"tmdb.base_url", cfg.TMDB.BaseURL},
				{"tmdb.language", cfg.TMDB.Language},
				{"tmdb.api_key", redactSecret(cfg.TMDB.APIKey)},
				{"cache.dir", cfg.Cache.Dir},
				{"cache.hit_ttl_hours", fmt.Sprintf("%d", cfg.Cache.HitTTLHours)},
				{"cache.negative_ttl_hours", fmt.Sprintf("%d", cfg.Cache.NegativeTTLHours)},
				{"matcher.accept_threshold", fmt.Sprintf("%.2f", cfg.Matcher.AcceptThreshold)},
				{"matcher.max_attempts", fmt.Sprintf("%d", cfg.Matcher.MaxAttempts)},
				{"qbittorrent.url", cfg.QBittorrent.URL},
				{"qbittorrent.username", cfg.QBittorrent.Username},
				{"qbittorrent.password", redactSecret(cfg.QBittorrent.Password)},
				{"probe.enabled", fmt.Sprintf("%t", cfg.Probe.Enabled)},
				{"probe.binary", cfg.Probe.Binary},
				{"probe.timeout", fmt.Sprintf("%d", cfg.Probe.Timeout)},
				{"output.dir", cfg.Output.Dir},
				{"output.create_nfo", fmt.Sprintf("%t", cfg.Output.CreateNFO)},
				{"output.export_torrent", fmt.Sprintf("%t", cfg.Output.ExportTorrent)},
				{"naming.default_group", cfg.Naming.DefaultGroup},
				{"logging.level", cfg.Logging.Level},
				{"logging.format", cfg.Logging.Format},
			}
			for name, tc := range cfg.Trackers {
				rows = append(rows,
					[]string{"trackers." + name + ".url", tc.URL},
					[]string{"trackers." + name + ".api_key", redactSecret(tc.APIKey)},
				)
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}

// redactedConfig returns a copy safe for display: secrets replaced, maps
// deep-copied so the live config is untouched.
func redactedConfig(cfg *config.Config) *config.Config {
	clone := *cfg
	clone.TMDB.APIKey = redactSecret(cfg.TMDB.APIKey)
	clone.QBittorrent.Password = redactSecret(cfg.QBittorrent.Password)
	clone.Trackers = make(map[string]config.Tracker, len(cfg.Trackers))
	for name, tc := range cfg.Trackers {
		tc.APIKey = redactSecret(tc.APIKey)
		clone.Trackers[name] = tc
	}
	return &clone
}

func redactSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(unset)"
	}
	return "********"
}
