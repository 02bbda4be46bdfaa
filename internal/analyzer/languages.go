package analyzer

import (
	"regexp"
	"sort"
	"strings"
)

// Language tags in release names come from scene conventions rather than any
// standard: VFF/VFQ/TRUEFRENCH for French dubs, VOSTFR for original audio
// with French subtitles, MULTI for multi-audio releases. Everything maps to
// ISO 639-1 codes.
var languageTokens = map[string]string{
	"french": "fr", "truefrench": "fr", "vff": "fr", "vfq": "fr", "vfi": "fr", "vf2": "fr", "vf": "fr",
	"english": "en", "eng": "en",
	"german": "de", "ger": "de", "deu": "de",
	"italian": "it", "ita": "it",
	"spanish": "es", "spa": "es", "castellano": "es",
	"portuguese": "pt", "por": "pt",
	"russian": "ru", "rus": "ru",
	"japanese": "ja", "jpn": "ja", "jap": "ja",
	"chinese": "zh", "chi": "zh",
	"korean": "ko", "kor": "ko",
	"arabic": "ar", "hindi": "hi",
	"dutch": "nl", "nld": "nl",
	"polish": "pl", "pol": "pl",
	"swedish": "sv", "norwegian": "no", "danish": "da", "finnish": "fi",
}

// subtitleTokens tag burned or muxed subtitle tracks. VOSTFR implies the
// audio is the original language and the subtitles are French.
var subtitleTokens = map[string]string{
	"vostfr": "fr", "vosta": "en", "vosten": "en",
	"subfrench": "fr", "stfr": "fr",
	"subbed": "", "subs": "",
}

var multiTokens = map[string]bool{
	"multi": true, "multi3": true, "multi4": true, "dual": true, "dl": false,
}

var languageTokenPattern = buildLanguagePattern()

func buildLanguagePattern() *regexp.Regexp {
	alts := make([]string, 0, len(languageTokens)+len(subtitleTokens)+len(multiTokens))
	for token := range languageTokens {
		alts = append(alts, token)
	}
	for token := range subtitleTokens {
		alts = append(alts, token)
	}
	for token := range multiTokens {
		if token != "dl" {
			alts = append(alts, token)
		}
	}
	// Longest alternative first so "truefrench" wins over "french" and
	// "vostfr" over "vf".
	sort.Slice(alts, func(i, j int) bool {
		if len(alts[i]) != len(alts[j]) {
			return len(alts[i]) > len(alts[j])
		}
		return alts[i] < alts[j]
	})
	return tokenPattern(strings.Join(alts, "|"))
}

// extractLanguages pulls every language, subtitle, and MULTI tag out of the
// working string. Order of appearance is preserved and duplicates are
// collapsed.
func extractLanguages(working string) (langs, subs []string, multi bool, rest string) {
	seenLang := map[string]bool{}
	seenSub := map[string]bool{}

	for {
		value, start, end, ok := findToken(languageTokenPattern, working)
		if !ok {
			break
		}
		working = removeSpan(working, start, end)

		token := strings.ToLower(value)
		switch {
		case multiTokens[token]:
			multi = true
		case subtitleTokens[token] != "" || token == "subbed" || token == "subs":
			if code := subtitleTokens[token]; code != "" && !seenSub[code] {
				seenSub[code] = true
				subs = append(subs, code)
			}
			// VOST* also tells us the audio kept its original language,
			// which we cannot name, so only the subtitle code is recorded.
		default:
			code := languageTokens[token]
			if code != "" && !seenLang[code] {
				seenLang[code] = true
				langs = append(langs, code)
			}
		}
	}
	return langs, subs, multi, working
}
