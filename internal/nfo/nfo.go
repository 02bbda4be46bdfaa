// Package nfo renders Kodi-style NFO documents for identified media.
package nfo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"mediaid/internal/services"
	"mediaid/internal/textutil"
)

// Metadata is everything an NFO document can carry. Zero-valued fields are
// omitted from the output.
type Metadata struct {
	MediaType   string
	Title       string
	EpisodeName string
	Year        int
	Season      int
	Episode     int
	Plot        string
	TMDBID      int64
	IMDBID      string
	Genres      []string
	Runtime     int
	Rating      float64

	// Technical details rendered as trailing comments.
	Resolution string
	VideoCodec string
	AudioCodec string
	Languages  []string
	Hash       string
	Category   string
	Tags       []string
}

const movieTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<movie>
  <title>{{xml .Title}}</title>
{{- if .Year}}
  <year>{{.Year}}</year>
{{- end}}
{{- if .Plot}}
  <plot>{{xml .Plot}}</plot>
{{- end}}
{{- if .TMDBID}}
  <tmdbid>{{.TMDBID}}</tmdbid>
{{- end}}
{{- if .IMDBID}}
  <imdbid>{{xml .IMDBID}}</imdbid>
{{- end}}
{{- range .Genres}}
  <genre>{{xml .}}</genre>
{{- end}}
{{- if .Runtime}}
  <runtime>{{.Runtime}}</runtime>
{{- end}}
{{- if .Rating}}
  <rating>{{printf "%.1f" .Rating}}</rating>
{{- end}}
</movie>
`

const episodeTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<episodedetails>
  <title>{{xml .Title}}</title>
{{- if .Season}}
  <season>{{.Season}}</season>
{{- end}}
{{- if .Episode}}
  <episode>{{.Episode}}</episode>
{{- end}}
{{- if .EpisodeName}}
  <episodetitle>{{xml .EpisodeName}}</episodetitle>
{{- end}}
{{- if .Plot}}
  <plot>{{xml .Plot}}</plot>
{{- end}}
{{- if .TMDBID}}
  <tmdbid>{{.TMDBID}}</tmdbid>
{{- end}}
{{- range .Genres}}
  <genre>{{xml .}}</genre>
{{- end}}
{{- if .Rating}}
  <rating>{{printf "%.1f" .Rating}}</rating>
{{- end}}
</episodedetails>
`

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

var templates = template.Must(
	template.New("movie").Funcs(template.FuncMap{
		"xml": xmlEscaper.Replace,
	}).Parse(movieTemplate),
)

func init() {
	template.Must(templates.New("episode").Parse(episodeTemplate))
}

// Render writes the NFO document for meta to w.
func Render(w io.Writer, meta Metadata) error {
	name := "movie"
	if meta.MediaType == "tv" || meta.MediaType == "series" || meta.MediaType == "anime" {
		name = "episode"
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, meta); err != nil {
		return services.Wrap(services.ErrValidation, "nfo", "render", "execute template", err)
	}
	writeTechnicalComments(&buf, meta)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return services.Wrap(services.ErrExternalTool, "nfo", "render", "write document", err)
	}
	return nil
}

func writeTechnicalComments(buf *bytes.Buffer, meta Metadata) {
	buf.WriteString("\n<!-- Technical Information -->\n")
	fmt.Fprintf(buf, "<!-- Resolution: %s -->\n", orUnknown(meta.Resolution))
	fmt.Fprintf(buf, "<!-- Video Codec: %s -->\n", orUnknown(meta.VideoCodec))
	fmt.Fprintf(buf, "<!-- Audio Codec: %s -->\n", orUnknown(meta.AudioCodec))
	fmt.Fprintf(buf, "<!-- Languages: %s -->\n", orUnknown(strings.Join(meta.Languages, ", ")))
	if meta.Hash != "" {
		fmt.Fprintf(buf, "<!-- Original Hash: %s -->\n", meta.Hash)
	}
	if meta.Category != "" {
		fmt.Fprintf(buf, "<!-- Category: %s -->\n", meta.Category)
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintf(buf, "<!-- Tags: %s -->\n", strings.Join(meta.Tags, ", "))
	}
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}

// WriteFile renders the NFO into dir using the release name as file name.
func WriteFile(dir, releaseName string, meta Metadata) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "nfo", "write", "create output directory", err)
	}
	path := filepath.Join(dir, textutil.SanitizeFileName(releaseName)+".nfo")
	file, err := os.Create(path)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "nfo", "write", "create nfo file", err)
	}
	defer file.Close()

	if err := Render(file, meta); err != nil {
		return "", err
	}
	return path, nil
}
