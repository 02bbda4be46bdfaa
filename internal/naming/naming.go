// Package naming builds scene-style release names from parsed metadata and
// resolved identities.
package naming

import (
	"fmt"
	"strings"

	"mediaid/internal/analyzer"
	"mediaid/internal/textutil"
)

// platformCodes maps streaming services and networks to the short codes
// used in release names.
var platformCodes = map[string]string{
	"netflix":             "NF",
	"amazon prime video":  "AMZ",
	"amazon":              "AMZ",
	"prime video":         "AMZ",
	"disney+":             "DSN",
	"disney":              "DSN",
	"disney plus":         "DSN",
	"hbo max":             "HBO",
	"hbo":                 "HBO",
	"apple tv+":           "APTV",
	"apple tv":            "APTV",
	"apple":               "APTV",
	"paramount+":          "PAR",
	"paramount plus":      "PAR",
	"paramount":           "PAR",
	"peacock":             "PCOK",
	"hulu":                "HULU",
	"star+":               "STAR",
	"star plus":           "STAR",
	"showtime":            "SHO",
	"cbs":                 "CBS",
	"nbc":                 "NBC",
	"abc":                 "ABC",
	"fox":                 "FOX",
	"bbc":                 "BBC",
	"itv":                 "ITV",
	"channel 4":           "C4",
	"sky":                 "SKY",
	"fx":                  "FX",
	"amc":                 "AMC",
	"syfy":                "SYFY",
	"mtv":                 "MTV",
	"comedy central":      "CC",
	"cartoon network":     "CN",
	"adult swim":          "AS",
	"discovery":           "DSC",
	"national geographic": "NG",
	"history":             "HIST",
	"a&e":                 "AE",
	"lifetime":            "LIFE",
	"crunchyroll":         "CR",
	"funimation":          "FUNI",
	"tubi":                "TUBI",
	"pluto tv":            "PLUTO",
	"roku":                "ROKU",
	"vudu":                "VUDU",
}

// PlatformCode shortens a platform or network name. Unknown multi-word
// names fall back to their initials, single words to a three-letter prefix.
func PlatformCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lowered := strings.ToLower(name)
	if code, ok := platformCodes[lowered]; ok {
		return code
	}
	for known, code := range platformCodes {
		if strings.Contains(lowered, known) || strings.Contains(known, lowered) {
			return code
		}
	}

	words := strings.Fields(name)
	if len(words) >= 2 {
		var initials strings.Builder
		for i, word := range words {
			if i == 3 {
				break
			}
			initials.WriteString(strings.ToUpper(word[:1]))
		}
		return initials.String()
	}
	if len(name) >= 3 {
		return strings.ToUpper(name[:3])
	}
	return strings.ToUpper(name)
}

// Options configure release-name construction.
type Options struct {
	// DefaultGroup is used when the parsed name carries no release group.
	DefaultGroup string
	// MultiLabel is the tag inserted for multi-audio releases.
	MultiLabel string
}

// Builder assembles release names.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder. Empty options get sensible fallbacks.
func NewBuilder(opts Options) *Builder {
	if opts.DefaultGroup == "" {
		opts.DefaultGroup = "NOGRP"
	}
	if opts.MultiLabel == "" {
		opts.MultiLabel = "MULTi"
	}
	return &Builder{opts: opts}
}

// ReleaseName renders the dot-separated release name. The title and year
// arguments come from the resolved identity and take precedence over the
// parsed values; pass empty/zero to fall back to what was parsed.
func (b *Builder) ReleaseName(parsed analyzer.ParsedName, title string, year int) string {
	if title == "" {
		title = parsed.RawTitle
	}
	if year == 0 {
		year = parsed.Year
	}

	parts := []string{dotToken(title)}
	if year > 0 && parsed.ContentType == analyzer.TypeMovie {
		parts = append(parts, fmt.Sprintf("%d", year))
	}
	if marker := episodeMarker(parsed); marker != "" {
		parts = append(parts, marker)
	}
	if parsed.Edition != "" {
		parts = append(parts, dotToken(parsed.Edition))
	}
	if parsed.Multi || len(parsed.Languages) > 1 {
		parts = append(parts, b.opts.MultiLabel)
	} else if len(parsed.Languages) == 1 && parsed.Languages[0] != "en" {
		parts = append(parts, strings.ToUpper(parsed.Languages[0]))
	}
	if len(parsed.Subtitles) > 0 && len(parsed.Languages) == 0 && !parsed.Multi {
		parts = append(parts, "VOST"+strings.ToUpper(parsed.Subtitles[0]))
	}
	if parsed.Resolution != "" {
		parts = append(parts, parsed.Resolution)
	}
	if source := sourceToken(parsed); source != "" {
		parts = append(parts, source)
	}
	if hdr := hdrToken(parsed.HDR); hdr != "" {
		parts = append(parts, hdr)
	}
	if parsed.AudioCodec != "" {
		parts = append(parts, audioToken(parsed.AudioCodec))
	}
	if parsed.VideoCodec != "" {
		parts = append(parts, videoToken(parsed.VideoCodec))
	}

	group := groupToken(parsed.ReleaseGroup)
	if group == "" {
		group = groupToken(b.opts.DefaultGroup)
	}
	return strings.Join(parts, ".") + "-" + group
}

// groupToken keeps only the characters a release-group tag may contain,
// preserving case.
func groupToken(group string) string {
	var b strings.Builder
	for _, r := range group {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func episodeMarker(parsed analyzer.ParsedName) string {
	switch {
	case parsed.FullSeason && parsed.Season > 0:
		return fmt.Sprintf("S%02d", parsed.Season)
	case parsed.Season > 0 && parsed.Episode > 0:
		return fmt.Sprintf("S%02dE%02d", parsed.Season, parsed.Episode)
	case parsed.Episode > 0:
		// Anime releases commonly number episodes without a season.
		return fmt.Sprintf("E%02d", parsed.Episode)
	default:
		return ""
	}
}

// sourceToken renders the source, appending the platform short code when a
// streaming platform was detected (WEB-DL.NF).
func sourceToken(parsed analyzer.ParsedName) string {
	source := parsed.Source
	if source == "" && parsed.Platform != "" {
		source = "WEB-DL"
	}
	if source == "" {
		return ""
	}
	if parsed.Platform != "" {
		if code := PlatformCode(parsed.Platform); code != "" {
			return source + "." + code
		}
	}
	return source
}

func hdrToken(format analyzer.HDRFormat) string {
	switch format {
	case analyzer.HDR10:
		return "HDR"
	case analyzer.HDR10Plus:
		return "HDR10Plus"
	case analyzer.HDRDolbyVision:
		return "DV"
	default:
		return ""
	}
}

var audioLabels = map[string]string{
	"aac": "AAC", "ac3": "AC3", "eac3": "EAC3",
	"dts": "DTS", "dtshd": "DTS-HD", "truehd": "TrueHD", "atmos": "Atmos",
	"flac": "FLAC", "mp3": "MP3", "opus": "OPUS",
}

func audioToken(codec string) string {
	if label, ok := audioLabels[codec]; ok {
		return label
	}
	return strings.ToUpper(codec)
}

var videoLabels = map[string]string{
	"h264": "x264", "hevc": "x265",
	"vp9": "VP9", "av1": "AV1", "xvid": "XviD", "divx": "DivX", "vc1": "VC-1",
}

func videoToken(codec string) string {
	if label, ok := videoLabels[codec]; ok {
		return label
	}
	return codec
}

// dotToken converts free text into a dot-separated name component, dropping
// characters that do not belong in a release name.
func dotToken(text string) string {
	sanitized := textutil.SanitizeFileName(text)
	fields := strings.FieldsFunc(sanitized, func(r rune) bool {
		return r == ' ' || r == '.' || r == '_'
	})
	return strings.Join(fields, ".")
}
