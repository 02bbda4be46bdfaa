package mediainfo

import (
	"reflect"
	"testing"
)

func TestParseReport(t *testing.T) {
	payload := []byte(`{
		"streams": [
			{"codec_name": "hevc", "codec_type": "video", "width": 3840, "height": 2160},
			{"codec_name": "eac3", "codec_type": "audio", "channels": 6, "tags": {"language": "eng"}},
			{"codec_name": "ac3", "codec_type": "audio", "channels": 2, "tags": {"language": "fre"}},
			{"codec_name": "ac3", "codec_type": "audio", "channels": 2, "tags": {"language": "fra"}},
			{"codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng"}}
		],
		"format": {"duration": "7020.480000"}
	}`)

	info, err := parseReport(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.VideoCodec != "hevc" || info.Resolution != "2160p" {
		t.Fatalf("video = %q %q", info.VideoCodec, info.Resolution)
	}
	if info.AudioCodec != "eac3" {
		t.Fatalf("audio = %q", info.AudioCodec)
	}
	if !reflect.DeepEqual(info.Languages, []string{"en", "fr"}) {
		t.Fatalf("languages = %v", info.Languages)
	}
	if info.DurationSec != 7020.48 {
		t.Fatalf("duration = %v", info.DurationSec)
	}
}

func TestParseReportRejectsGarbage(t *testing.T) {
	if _, err := parseReport([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseReportEmptyStreams(t *testing.T) {
	info, err := parseReport([]byte(`{"streams": [], "format": {}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if info.VideoCodec != "" || info.Resolution != "" || len(info.Languages) != 0 {
		t.Fatalf("info = %+v", info)
	}
}

func TestResolutionLabel(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{3840, 2160, "2160p"},
		{1920, 1080, "1080p"},
		{1920, 800, "1080p"},
		{1280, 720, "720p"},
		{720, 576, "576p"},
		{720, 480, "480p"},
		{640, 360, "360p"},
		{0, 0, ""},
	}
	for _, tc := range cases {
		if got := resolutionLabel(tc.width, tc.height); got != tc.want {
			t.Errorf("resolutionLabel(%d, %d) = %q, want %q", tc.width, tc.height, got, tc.want)
		}
	}
}

func TestVideoFamily(t *testing.T) {
	cases := map[string]string{
		"h264":   "h264",
		"hevc":   "hevc",
		"mpeg4":  "xvid",
		"HEVC":   "hevc",
		"theora": "theora",
	}
	for in, want := range cases {
		if got := videoFamily(in); got != want {
			t.Errorf("videoFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageCode(t *testing.T) {
	cases := map[string]string{
		"eng":     "en",
		"fra":     "fr",
		"fre":     "fr",
		"und":     "",
		"":        "",
		"de":      "de",
		"unknown": "",
	}
	for in, want := range cases {
		if got := languageCode(in); got != want {
			t.Errorf("languageCode(%q) = %q, want %q", in, got, want)
		}
	}
}
