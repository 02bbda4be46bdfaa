// Package mediainfo inspects downloaded content files with ffprobe,
// recovering the technical attributes (codec, resolution, audio languages)
// that release names frequently omit or get wrong.
package mediainfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mediaid/internal/logging"
	"mediaid/internal/services"
)

// Info holds the attributes recovered from one media file. Fields are empty
// when the file does not carry the corresponding stream or tag.
type Info struct {
	VideoCodec  string   `json:"video_codec,omitempty"`
	AudioCodec  string   `json:"audio_codec,omitempty"`
	Resolution  string   `json:"resolution,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	DurationSec float64  `json:"duration_sec,omitempty"`
}

type probeReport struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Tags      struct {
		Language string `json:"language"`
	} `json:"tags"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Prober shells out to ffprobe.
type Prober struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewProber builds a Prober. An empty binary resolves "ffprobe" from PATH.
func NewProber(binary string, timeout time.Duration, logger *slog.Logger) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prober{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "mediainfo"),
	}
}

// Probe inspects the file at path. A missing or unreadable file is reported
// as not found so callers can skip enrichment instead of failing a torrent.
func (p *Prober) Probe(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "mediainfo", "probe", "content file not accessible", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "mediainfo", "probe", "run ffprobe", err)
	}

	info, err := parseReport(output)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("probed content file",
		logging.String("path", path),
		logging.String("video_codec", info.VideoCodec),
		logging.String("resolution", info.Resolution))
	return info, nil
}

func parseReport(data []byte) (*Info, error) {
	var report probeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "mediainfo", "probe", "parse ffprobe output", err)
	}

	info := &Info{}
	for _, stream := range report.Streams {
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if info.VideoCodec == "" {
				info.VideoCodec = videoFamily(stream.CodecName)
			}
			if info.Resolution == "" {
				info.Resolution = resolutionLabel(stream.Width, stream.Height)
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = audioFamily(stream.CodecName)
			}
			if lang := languageCode(stream.Tags.Language); lang != "" && !containsString(info.Languages, lang) {
				info.Languages = append(info.Languages, lang)
			}
		}
	}
	if seconds, err := strconv.ParseFloat(strings.TrimSpace(report.Format.Duration), 64); err == nil && seconds > 0 {
		info.DurationSec = seconds
	}
	return info, nil
}

var videoFamilies = map[string]string{
	"h264":       "h264",
	"hevc":       "hevc",
	"av1":        "av1",
	"vp9":        "vp9",
	"vc1":        "vc1",
	"mpeg4":      "xvid",
	"msmpeg4v3":  "divx",
	"mpeg2video": "mpeg2",
}

func videoFamily(codec string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if family, ok := videoFamilies[codec]; ok {
		return family
	}
	return codec
}

var audioFamilies = map[string]string{
	"aac":    "aac",
	"ac3":    "ac3",
	"eac3":   "eac3",
	"dts":    "dts",
	"truehd": "truehd",
	"flac":   "flac",
	"opus":   "opus",
	"mp3":    "mp3",
}

func audioFamily(codec string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if family, ok := audioFamilies[codec]; ok {
		return family
	}
	if strings.HasPrefix(codec, "pcm_") {
		return "pcm"
	}
	return codec
}

// resolutionLabel buckets stream dimensions into the scene labels used in
// release names. Width decides for letterboxed content whose height falls
// short of the nominal bucket.
func resolutionLabel(width, height int) string {
	switch {
	case height >= 2000 || width >= 3800:
		return "2160p"
	case height >= 1000 || width >= 1900:
		return "1080p"
	case height >= 700 || width >= 1260:
		return "720p"
	case height >= 570:
		return "576p"
	case height >= 470:
		return "480p"
	case height > 0:
		return "360p"
	default:
		return ""
	}
}

// iso639Two maps the ISO 639-2 codes ffprobe reports (both bibliographic
// and terminological forms) to the ISO 639-1 codes used everywhere else.
var iso639Two = map[string]string{
	"eng": "en",
	"fre": "fr", "fra": "fr",
	"ger": "de", "deu": "de",
	"spa": "es",
	"ita": "it",
	"jpn": "ja",
	"kor": "ko",
	"chi": "zh", "zho": "zh",
	"rus": "ru",
	"por": "pt",
	"dut": "nl", "nld": "nl",
	"swe": "sv",
	"nor": "no",
	"dan": "da",
	"fin": "fi",
	"pol": "pl",
	"hun": "hu",
	"cze": "cs", "ces": "cs",
	"ara": "ar",
	"hin": "hi",
	"tur": "tr",
}

func languageCode(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch {
	case tag == "" || tag == "und":
		return ""
	case len(tag) == 2:
		return tag
	}
	return iso639Two[tag]
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
