package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

// Token rules match delimited technical tokens. Release names separate
// tokens with dots, spaces, dashes, underscores, or brackets, so every rule
// anchors on those instead of \b (which misbehaves around "+" and "-").
const (
	tokenPrefix = `(?:^|[\s._\-\[\(])`
	tokenSuffix = `(?:[\s._\-\]\)]|$)`
)

func tokenPattern(alternation string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + tokenPrefix + `(` + alternation + `)` + tokenSuffix)
}

var (
	resolutionPattern = tokenPattern(`2160p|1080p|720p|576p|480p|360p|4k|uhd|fhd|fullhd`)
	videoCodecPattern = tokenPattern(`x[\.]?26[45]|h[\.]?26[45]|hevc|avc|xvid|divx|vp9|av1|vc-?1`)
	audioCodecPattern = tokenPattern(`(?:atmos|truehd|dts[-.]?hd(?:[-.]?ma)?|dts|e-?ac-?3|eac3|ddp|dd\+|ac-?3|aac|flac|opus|mp3)(?:[-. ]?\d\.\d)?`)
	hdrPattern        = tokenPattern(`dolby[-. ]?vision|dovi|hdr10(?:\+|plus)?|hdr|dv`)
	sourcePattern     = tokenPattern(`web[-.]?dl|webrip|web|blu-?ray|bdremux|remux|bdrip|brrip|dvdrip|dvdscr|dvd|hdtv|hdrip|telesync|telecine|cam`)
	platformPattern   = tokenPattern(`netflix|nf|amzn|amazon|hbo[-. ]?max|hmax|hbo|disney\+?|dsnp|hulu|atvp|apple[-. ]?tv\+?|crunchyroll|peacock|pcok|paramount\+?`)
	editionPattern    = tokenPattern(`extended(?:[-. ](?:cut|edition|version))?|director'?s[-. ]cut|unrated|remastered|uncut|theatrical|imax|proper|repack|internal|limited|hybrid`)
	trashPattern      = tokenPattern(`readnfo|read[-.]?nfo|nfofix|subforced|complet`)

	yearPattern = regexp.MustCompile(`(?:^|[\s._\-\(\[])((?:19|20)\d{2})(?:[\s._\-\)\]]|$)`)

	seasonEpisodePattern = regexp.MustCompile(`(?i)(?:^|[\s._\-\[\(])S(\d{1,2})[\s._\-]?E(\d{1,3})(?:[-E\d]*)` + tokenSuffix)
	crossFormatPattern   = regexp.MustCompile(`(?i)(?:^|[\s._\-\[\(])(\d{1,2})x(\d{2,3})` + tokenSuffix)
	seasonOnlyPattern    = regexp.MustCompile(`(?i)(?:^|[\s._\-\[\(])(?:Season[\s._\-]?|S)(\d{1,2})` + tokenSuffix)
	episodeOnlyPattern   = regexp.MustCompile(`(?i)(?:^|[\s._\-\[\(])Episode[\s._\-]?(\d{1,3})` + tokenSuffix)

	animeBracketPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+?)\s*-\s*(\d{1,3})(?:\s*[vV]\d)?\s*(.*)$`)

	groupSuffixPattern  = regexp.MustCompile(`-([A-Za-z][A-Za-z0-9]{1,19})$`)
	groupBracketPattern = regexp.MustCompile(`[\[\(]([A-Za-z][A-Za-z0-9]{1,19})[\]\)]$`)

	bracketGroupPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
)

var videoCodecFamilies = map[string]string{
	"x264": "h264", "h264": "h264", "avc": "h264",
	"x265": "hevc", "h265": "hevc", "hevc": "hevc",
	"xvid": "xvid", "divx": "divx",
	"vp9": "vp9", "av1": "av1", "vc1": "vc1",
}

var audioCodecFamilies = map[string]string{
	"aac": "aac", "ac3": "ac3", "dd": "ac3",
	"eac3": "eac3", "ddp": "eac3", "dd+": "eac3",
	"dts": "dts", "dtshd": "dtshd", "dtshdma": "dtshd",
	"truehd": "truehd", "atmos": "atmos",
	"flac": "flac", "mp3": "mp3", "opus": "opus",
}

var resolutionAliases = map[string]string{
	"4k": "2160p", "uhd": "2160p", "fhd": "1080p", "fullhd": "1080p",
}

var sourceLabels = map[string]string{
	"webdl": "WEB-DL", "webrip": "WEBRip", "web": "WEB",
	"bluray": "BluRay", "bdremux": "Remux", "remux": "Remux",
	"bdrip": "BDRip", "brrip": "BRRip",
	"dvdrip": "DVDRip", "dvdscr": "DVDScr", "dvd": "DVD",
	"hdtv": "HDTV", "hdrip": "HDRip",
	"telesync": "TS", "telecine": "TC", "cam": "CAM",
}

var platformLabels = map[string]string{
	"netflix": "Netflix", "nf": "Netflix",
	"amzn": "Amazon", "amazon": "Amazon",
	"hbomax": "HBO Max", "hmax": "HBO Max", "hbo": "HBO",
	"disney": "Disney+", "disney+": "Disney+", "dsnp": "Disney+",
	"hulu": "Hulu", "atvp": "Apple TV+", "appletv": "Apple TV+", "appletv+": "Apple TV+",
	"crunchyroll": "Crunchyroll", "peacock": "Peacock", "pcok": "Peacock",
	"paramount": "Paramount+", "paramount+": "Paramount+",
}

// removeSpan cuts [start,end) from s, leaving a single space so surrounding
// tokens stay separated.
func removeSpan(s string, start, end int) string {
	return s[:start] + " " + s[end:]
}

// findToken locates the first delimited match for pattern. Matches that
// begin the string are rejected: a leading token is title material, never a
// technical tag (this is what keeps codec-like title words such as "Opus"
// intact).
func findToken(pattern *regexp.Regexp, working string) (value string, start, end int, ok bool) {
	loc := pattern.FindStringSubmatchIndex(working)
	if loc == nil {
		return "", 0, 0, false
	}
	start, end = loc[2], loc[3]
	if start == 0 {
		return "", 0, 0, false
	}
	return working[start:end], start, end, true
}

func foldToken(value string) string {
	value = strings.ToLower(value)
	value = strings.NewReplacer(".", "", "-", "", " ", "").Replace(value)
	return value
}

func extractResolution(working string) (string, string) {
	value, start, end, ok := findToken(resolutionPattern, working)
	if !ok {
		return "", working
	}
	folded := foldToken(value)
	if alias, found := resolutionAliases[folded]; found {
		folded = alias
	}
	working = removeSpan(working, start, end)
	// Releases often double up ("2160p UHD"); drop the redundant tokens.
	for {
		_, start, end, ok := findToken(resolutionPattern, working)
		if !ok {
			break
		}
		working = removeSpan(working, start, end)
	}
	return folded, working
}

func extractVideoCodec(working string) (string, string) {
	value, start, end, ok := findToken(videoCodecPattern, working)
	if !ok {
		return "", working
	}
	family, found := videoCodecFamilies[foldToken(value)]
	if !found {
		return "", working
	}
	return family, removeSpan(working, start, end)
}

// extractAudioCodec removes every audio token and reports the first family
// found. Releases stack audio tags (TrueHD.Atmos, DDP5.1.Atmos); the extras
// must not leak into the title.
func extractAudioCodec(working string) (string, string) {
	var family string
	for {
		value, start, end, ok := findToken(audioCodecPattern, working)
		if !ok {
			return family, working
		}
		folded := foldToken(value)
		// Channel layouts ride along with the codec token (AAC 5.1, DDP5.1).
		for _, layout := range []string{"51", "71", "20", "10"} {
			if strings.HasSuffix(folded, layout) && len(folded) > len(layout) {
				folded = strings.TrimSuffix(folded, layout)
				break
			}
		}
		mapped, found := audioCodecFamilies[folded]
		if !found {
			return family, working
		}
		if family == "" {
			family = mapped
		}
		working = removeSpan(working, start, end)
	}
}

func extractHDR(working string) (HDRFormat, string) {
	value, start, end, ok := findToken(hdrPattern, working)
	if !ok {
		return HDRNone, working
	}
	rest := removeSpan(working, start, end)
	switch folded := foldToken(value); {
	case folded == "dolbyvision" || folded == "dovi" || folded == "dv":
		return HDRDolbyVision, rest
	case folded == "hdr10+" || folded == "hdr10plus":
		return HDR10Plus, rest
	default:
		return HDR10, rest
	}
}

// extractSource removes every source token. Remux wins over the disc format
// it rides with ("BluRay REMUX"), otherwise the first token decides.
func extractSource(working string) (string, string) {
	var label string
	for {
		value, start, end, ok := findToken(sourcePattern, working)
		if !ok {
			return label, working
		}
		mapped, found := sourceLabels[foldToken(value)]
		if !found {
			return label, working
		}
		if label == "" || mapped == "Remux" {
			label = mapped
		}
		working = removeSpan(working, start, end)
	}
}

func extractPlatform(working string) (string, string) {
	value, start, end, ok := findToken(platformPattern, working)
	if !ok {
		return "", working
	}
	folded := strings.ToLower(strings.NewReplacer(".", "", "-", "", " ", "").Replace(value))
	label, found := platformLabels[folded]
	if !found {
		return "", working
	}
	return label, removeSpan(working, start, end)
}

func extractEdition(working string) (string, string) {
	var label string
	for {
		value, start, end, ok := findToken(editionPattern, working)
		if !ok {
			return label, working
		}
		if label == "" {
			label = titleCaser.String(strings.ToLower(strings.Map(func(r rune) rune {
				if r == '.' || r == '_' {
					return ' '
				}
				return r
			}, value)))
		}
		working = removeSpan(working, start, end)
	}
}

func stripTrashTokens(working string) string {
	for {
		_, start, end, ok := findToken(trashPattern, working)
		if !ok {
			return working
		}
		working = removeSpan(working, start, end)
	}
}

// extractYear picks the last plausible year token. Earlier year-like tokens
// are treated as title words ("2001 A Space Odyssey"), and a year that
// starts the string is always title material.
func extractYear(working string) (int, string) {
	matches := yearPattern.FindAllStringSubmatchIndex(working, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][2], matches[i][3]
		if start == 0 {
			continue
		}
		year, err := strconv.Atoi(working[start:end])
		if err != nil || year < 1900 || year > 2099 {
			continue
		}
		return year, removeSpan(working, start, end)
	}
	return 0, working
}

func extractSeasonEpisode(working string) (season, episode int, full bool, rest string, ok bool) {
	if loc := seasonEpisodePattern.FindStringSubmatchIndex(working); loc != nil && loc[2] > 0 {
		season, _ = strconv.Atoi(working[loc[2]:loc[3]])
		episode, _ = strconv.Atoi(working[loc[4]:loc[5]])
		return season, episode, false, removeSpan(working, loc[0], loc[1]), true
	}
	if loc := crossFormatPattern.FindStringSubmatchIndex(working); loc != nil && loc[2] > 0 {
		season, _ = strconv.Atoi(working[loc[2]:loc[3]])
		episode, _ = strconv.Atoi(working[loc[4]:loc[5]])
		return season, episode, false, removeSpan(working, loc[2], loc[5]), true
	}
	if loc := seasonOnlyPattern.FindStringSubmatchIndex(working); loc != nil && loc[2] > 0 {
		season, _ = strconv.Atoi(working[loc[2]:loc[3]])
		return season, 0, true, removeSpan(working, loc[0], loc[1]), true
	}
	if loc := episodeOnlyPattern.FindStringSubmatchIndex(working); loc != nil && loc[2] > 0 {
		episode, _ = strconv.Atoi(working[loc[2]:loc[3]])
		return 0, episode, false, removeSpan(working, loc[0], loc[1]), true
	}
	return 0, 0, false, working, false
}

func matchAnimeBracket(working string) (group, title string, episode int, ok bool) {
	m := animeBracketPattern.FindStringSubmatch(working)
	if m == nil {
		return "", "", 0, false
	}
	episode, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}
	title = strings.TrimSpace(m[2])
	if rest := strings.TrimSpace(m[4]); rest != "" {
		title = title + " " + rest
	}
	return strings.TrimSpace(m[1]), title, episode, true
}

// extractReleaseGroup strips a trailing -GROUP or [GROUP] suffix. It only
// fires when some technical attribute was already found: a bare
// "Spider-Man" must keep its hyphenated half.
func extractReleaseGroup(working string) (string, string) {
	trimmed := strings.TrimSpace(working)
	if m := groupSuffixPattern.FindStringSubmatchIndex(trimmed); m != nil {
		candidate := trimmed[m[2]:m[3]]
		if !looksLikeTitleWord(trimmed, m[0]) {
			return candidate, trimmed[:m[0]]
		}
	}
	if m := groupBracketPattern.FindStringSubmatchIndex(trimmed); m != nil {
		return trimmed[m[2]:m[3]], trimmed[:m[0]]
	}
	return "", working
}

// looksLikeTitleWord reports whether the -suffix at cut is plausibly part of
// the title rather than a release-group tag. A group tag follows a token
// boundary created by earlier span removals (space or dot before the dash).
func looksLikeTitleWord(s string, cut int) bool {
	if cut == 0 {
		return true
	}
	// A dash glued directly onto a letter with no removals nearby suggests
	// a hyphenated title word when the string holds nothing else technical.
	return !strings.ContainsAny(s, ". ") && strings.Count(s, "-") == 1
}
