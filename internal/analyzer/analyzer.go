package analyzer

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediaid/internal/textutil"
)

// ContentType classifies what kind of media a release name describes.
type ContentType string

const (
	TypeMovie   ContentType = "movie"
	TypeSeries  ContentType = "series"
	TypeAnime   ContentType = "anime"
	TypeUnknown ContentType = "unknown"
)

// HDRFormat identifies the HDR variant advertised in a release name.
type HDRFormat string

const (
	HDRNone        HDRFormat = "none"
	HDR10          HDRFormat = "hdr10"
	HDR10Plus      HDRFormat = "hdr10plus"
	HDRDolbyVision HDRFormat = "dolby_vision"
)

// ParsedName is the structured result of analyzing a release name.
// All technical fields are best-effort; absent attributes stay zero-valued.
type ParsedName struct {
	RawTitle     string      `json:"raw_title"`
	ContentType  ContentType `json:"content_type"`
	Year         int         `json:"year,omitempty"`
	Season       int         `json:"season,omitempty"`
	Episode      int         `json:"episode,omitempty"`
	FullSeason   bool        `json:"full_season,omitempty"`
	Resolution   string      `json:"resolution,omitempty"`
	VideoCodec   string      `json:"video_codec,omitempty"`
	AudioCodec   string      `json:"audio_codec,omitempty"`
	HDR          HDRFormat   `json:"hdr,omitempty"`
	Source       string      `json:"source,omitempty"`
	Platform     string      `json:"platform,omitempty"`
	Edition      string      `json:"edition,omitempty"`
	ReleaseGroup string      `json:"release_group,omitempty"`
	Languages    []string    `json:"languages,omitempty"`
	Subtitles    []string    `json:"subtitles,omitempty"`
	Multi        bool        `json:"multi,omitempty"`
}

var titleCaser = cases.Title(language.Und)

// Analyze parses a raw release name (filename or folder name) into a
// structured record. It never fails: when nothing matches, the result is a
// minimally cleaned title with ContentType unknown-to-movie defaulting per
// the heuristics below.
//
// Extraction works over a mutable working copy of the input. Each rule that
// matches removes its span from the working copy so technical tokens never
// leak into the title.
func Analyze(name string) ParsedName {
	parsed := ParsedName{ContentType: TypeUnknown, HDR: HDRNone}

	working := strings.TrimSpace(name)
	if working == "" {
		return parsed
	}
	working = trimVideoExtension(working)

	// Anime group-bracket naming is structural, so it runs before the
	// token rules: "[Group] Title - 01".
	if group, title, episode, ok := matchAnimeBracket(working); ok {
		parsed.ContentType = TypeAnime
		parsed.ReleaseGroup = group
		parsed.Episode = episode
		working = title
	}

	working = stripTrashTokens(working)

	if season, episode, full, rest, ok := extractSeasonEpisode(working); ok {
		parsed.Season = season
		parsed.Episode = episode
		parsed.FullSeason = full
		if parsed.ContentType == TypeUnknown {
			parsed.ContentType = TypeSeries
		}
		working = rest
	}

	parsed.Resolution, working = extractResolution(working)
	parsed.VideoCodec, working = extractVideoCodec(working)
	parsed.AudioCodec, working = extractAudioCodec(working)
	parsed.HDR, working = extractHDR(working)
	parsed.Source, working = extractSource(working)
	parsed.Platform, working = extractPlatform(working)
	parsed.Edition, working = extractEdition(working)

	var langs, subs []string
	langs, subs, parsed.Multi, working = extractLanguages(working)
	parsed.Languages = langs
	parsed.Subtitles = subs

	parsed.Year, working = extractYear(working)

	if parsed.ContentType != TypeAnime {
		var group string
		group, working = extractReleaseGroup(working)
		if group != "" {
			parsed.ReleaseGroup = group
		}
	}

	parsed.RawTitle = cleanTitle(working)
	if parsed.RawTitle == "" {
		// Unrecognized tokens are dropped, never fabricated, but the title
		// must stay non-empty for non-empty input.
		parsed.RawTitle = cleanTitle(trimVideoExtension(strings.TrimSpace(name)))
	}

	if parsed.ContentType == TypeUnknown {
		// No season/episode markers and no anime brackets: assume movie.
		parsed.ContentType = TypeMovie
	}

	return parsed
}

func trimVideoExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".mkv", ".mp4", ".avi", ".mov", ".wmv", ".ts", ".m2ts", ".webm":
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// cleanTitle converts separators to spaces, collapses whitespace, drops
// leftover bracket groups, and title-cases fully lowercased or uppercased
// results for display.
func cleanTitle(working string) string {
	working = bracketGroupPattern.ReplaceAllString(working, " ")
	working = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-', '+':
			return ' '
		}
		return r
	}, working)
	working = strings.Join(strings.Fields(working), " ")
	working = strings.Trim(working, " '")

	if working == "" {
		return ""
	}
	if working == strings.ToLower(working) || working == strings.ToUpper(working) {
		return titleCaser.String(strings.ToLower(working))
	}
	return working
}

// NormalizedKey returns the canonical comparison form of the parsed title,
// used as the cache-key component.
func (p ParsedName) NormalizedKey() string {
	key := textutil.Normalize(p.RawTitle)
	parts := []string{key, string(p.ContentType)}
	if p.Year > 0 {
		parts = append(parts, strconv.Itoa(p.Year))
	}
	return strings.Join(parts, "|")
}
