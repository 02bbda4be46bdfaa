package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediaid/internal/analyzer"
	"mediaid/internal/matcher"
	"mediaid/internal/naming"
)

type identification struct {
	Input       string              `json:"input"`
	Parsed      analyzer.ParsedName `json:"parsed"`
	Match       *matcher.Result     `json:"match,omitempty"`
	ReleaseName string              `json:"release_name,omitempty"`
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "identify <release-name>...",
		Short: "Parse release names and resolve them against TMDB",
		Long: `Parse one or more release names (filenames or folder names) into
structured metadata and resolve each against TMDB.

Examples:
  mediaid identify "Movie.Title.2023.1080p.BluRay.x264-GROUP"
  mediaid identify --offline "TV.Show.S01E02.720p.WEB-DL.x265-GRP"
  mediaid identify --json *.mkv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var resolver *matcher.Matcher
			if !offline {
				var cache matcher.LookupCache
				if !noCache {
					store, err := ctx.openCache()
					if err != nil {
						return err
					}
					defer store.Close()
					cache = store
				}
				resolver, err = ctx.newMatcher(cache)
				if err != nil {
					return err
				}
			}

			builder := naming.NewBuilder(naming.Options{
				DefaultGroup: cfg.Naming.DefaultGroup,
				MultiLabel:   cfg.Naming.MultiLabel,
			})

			results := make([]identification, 0, len(args))
			for _, name := range args {
				ident := identification{Input: name, Parsed: analyzer.Analyze(name)}
				if resolver != nil {
					match, err := resolver.Resolve(cmd.Context(), ident.Parsed)
					if err != nil {
						return fmt.Errorf("resolve %q: %w", name, err)
					}
					ident.Match = match
					title, year := "", 0
					if match.Matched() && match.Confidence != matcher.ConfidenceNone {
						title, year = match.Title, match.Year
					}
					ident.ReleaseName = builder.ReleaseName(ident.Parsed, title, year)
				} else {
					ident.ReleaseName = builder.ReleaseName(ident.Parsed, "", 0)
				}
				results = append(results, ident)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}
			printIdentifications(cmd, results)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Parse only; skip the TMDB lookup")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the lookup cache")
	return cmd
}

func printIdentifications(cmd *cobra.Command, results []identification) {
	out := cmd.OutOrStdout()
	for i, ident := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Input: %s\n", ident.Input)

		rows := [][]string{
			{"Title", ident.Parsed.RawTitle},
			{"Type", string(ident.Parsed.ContentType)},
		}
		if ident.Parsed.Year > 0 {
			rows = append(rows, []string{"Year", strconv.Itoa(ident.Parsed.Year)})
		}
		if marker := seasonEpisodeLabel(ident.Parsed); marker != "" {
			rows = append(rows, []string{"Episode", marker})
		}
		if ident.Parsed.Resolution != "" {
			rows = append(rows, []string{"Resolution", ident.Parsed.Resolution})
		}
		if ident.Parsed.VideoCodec != "" {
			rows = append(rows, []string{"Video", ident.Parsed.VideoCodec})
		}
		if ident.Parsed.AudioCodec != "" {
			rows = append(rows, []string{"Audio", ident.Parsed.AudioCodec})
		}
		if ident.Parsed.Source != "" {
			rows = append(rows, []string{"Source", ident.Parsed.Source})
		}
		if ident.Parsed.ReleaseGroup != "" {
			rows = append(rows, []string{"Group", ident.Parsed.ReleaseGroup})
		}
		if len(ident.Parsed.Languages) > 0 {
			rows = append(rows, []string{"Languages", strings.Join(ident.Parsed.Languages, ", ")})
		}

		if match := ident.Match; match != nil {
			if match.Matched() {
				rows = append(rows,
					[]string{"TMDB", fmt.Sprintf("%d (%s)", match.TMDBID, match.MediaType)},
					[]string{"Identity", identityLabel(match)},
					[]string{"Confidence", fmt.Sprintf("%s (%.2f)", match.Confidence, match.Score)},
				)
				if match.FromCache {
					rows = append(rows, []string{"Cache", "hit"})
				}
			} else {
				rows = append(rows, []string{"TMDB", "no match"})
			}
		}
		rows = append(rows, []string{"Release", ident.ReleaseName})

		fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	}
}

func seasonEpisodeLabel(parsed analyzer.ParsedName) string {
	switch {
	case parsed.FullSeason && parsed.Season > 0:
		return fmt.Sprintf("Season %d (complete)", parsed.Season)
	case parsed.Season > 0 && parsed.Episode > 0:
		return fmt.Sprintf("S%02dE%02d", parsed.Season, parsed.Episode)
	case parsed.Episode > 0:
		return fmt.Sprintf("Episode %d", parsed.Episode)
	default:
		return ""
	}
}

func identityLabel(match *matcher.Result) string {
	if match.Year > 0 {
		return fmt.Sprintf("%s (%d)", match.Title, match.Year)
	}
	return match.Title
}
