// Package tracker uploads prepared releases to private tracker APIs.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"mediaid/internal/services"
)

// Config describes one upload target.
type Config struct {
	Name          string
	URL           string
	APIKey        string
	Announce      string
	RequestsPerMn int
}

// Request carries everything one upload needs.
type Request struct {
	Name        string
	Description string
	MediaType   string
	Category    string
	Tags        []string
	Size        int64
	Year        int
	Season      int
	Episode     int
	Resolution  string
	VideoCodec  string
	AudioCodec  string
	Languages   []string
	TMDBID      int64
	IMDBID      string

	TorrentPath string
	NFOPath     string
}

// Result reports the tracker's response to an upload.
type Result struct {
	Name     string
	UploadID string
}

// Uploader posts releases to a single tracker with client-side pacing.
type Uploader struct {
	cfg        Config
	httpClient *http.Client
	pacer      *pacer
	retries    int
	retryDelay time.Duration
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(u *Uploader) {
		if client != nil {
			u.httpClient = client
		}
	}
}

// WithRetries tunes the transient-failure retry budget.
func WithRetries(retries int, delay time.Duration) Option {
	return func(u *Uploader) {
		if retries >= 0 {
			u.retries = retries
		}
		if delay > 0 {
			u.retryDelay = delay
		}
	}
}

// New creates an Uploader for the given tracker.
func New(cfg Config, opts ...Option) (*Uploader, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tracker", "new", "upload url required", nil)
	}
	if cfg.RequestsPerMn <= 0 {
		cfg.RequestsPerMn = 30
	}
	uploader := &Uploader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		pacer:      newPacer(cfg.RequestsPerMn),
		retries:    3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(uploader)
	}
	return uploader, nil
}

// Upload submits the torrent and its companion files to the tracker.
// Transient failures (timeouts, 5xx, rate limiting) are retried with
// backoff before the error is surfaced.
func (u *Uploader) Upload(ctx context.Context, req Request) (*Result, error) {
	if req.TorrentPath == "" {
		return nil, services.Wrap(services.ErrValidation, "tracker", "upload", "torrent file required", nil)
	}

	return retry.DoWithData(
		func() (*Result, error) {
			if err := u.pacer.wait(ctx); err != nil {
				return nil, services.Wrap(services.ErrTimeout, "tracker", "upload", "canceled while pacing", err)
			}
			return u.uploadOnce(ctx, req)
		},
		retry.Context(ctx),
		retry.Attempts(uint(u.retries)+1),
		retry.Delay(u.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(services.IsTransient),
	)
}

func (u *Uploader) uploadOnce(ctx context.Context, req Request) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := attachFile(writer, "torrent", req.TorrentPath); err != nil {
		return nil, err
	}
	if req.NFOPath != "" {
		if err := attachFile(writer, "nfo", req.NFOPath); err != nil {
			return nil, err
		}
	}
	for field, value := range uploadFields(u.cfg, req) {
		if err := writer.WriteField(field, value); err != nil {
			return nil, services.Wrap(services.ErrValidation, "tracker", "upload", "write form field", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "tracker", "upload", "finalize form", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.URL, body)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tracker", "upload", "build request", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if u.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+u.cfg.APIKey)
	}

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "tracker", "upload", "request timed out", err)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, services.Wrap(services.ErrTimeout, "tracker", "upload", "request timed out", err)
		}
		return nil, services.Wrap(services.ErrTransient, "tracker", "upload", "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrConfiguration, "tracker", "upload", "api key rejected", nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, "tracker", "upload",
			fmt.Sprintf("tracker returned %d", resp.StatusCode), nil)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrExternalTool, "tracker", "upload",
			fmt.Sprintf("tracker returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	result := &Result{Name: req.Name}
	var payload struct {
		ID any `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.ID != nil {
		result.UploadID = fmt.Sprint(payload.ID)
	}
	return result, nil
}

func attachFile(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "tracker", "upload",
			fmt.Sprintf("open %s file", field), err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return services.Wrap(services.ErrValidation, "tracker", "upload", "create form file", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return services.Wrap(services.ErrValidation, "tracker", "upload", "copy file into form", err)
	}
	return nil
}

func uploadFields(cfg Config, req Request) map[string]string {
	fields := map[string]string{
		"name":        req.Name,
		"type":        req.MediaType,
		"description": req.Description,
		"category":    req.Category,
		"tags":        strings.Join(req.Tags, ","),
		"size":        strconv.FormatInt(req.Size, 10),
	}
	if cfg.Announce != "" {
		fields["announce"] = cfg.Announce
	}
	if req.Year > 0 {
		fields["year"] = strconv.Itoa(req.Year)
	}
	if req.Season > 0 {
		fields["season"] = strconv.Itoa(req.Season)
	}
	if req.Episode > 0 {
		fields["episode"] = strconv.Itoa(req.Episode)
	}
	if req.Resolution != "" {
		fields["resolution"] = req.Resolution
	}
	if req.VideoCodec != "" {
		fields["video_codec"] = req.VideoCodec
	}
	if req.AudioCodec != "" {
		fields["audio_codec"] = req.AudioCodec
	}
	if req.TMDBID > 0 {
		fields["tmdb_id"] = strconv.FormatInt(req.TMDBID, 10)
	}
	if req.IMDBID != "" {
		fields["imdb_id"] = req.IMDBID
	}
	return fields
}

// Description renders the markdown upload description for the request.
func Description(req Request, overview string, genres []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", req.Name)
	if req.Year > 0 {
		fmt.Fprintf(&b, "**Year:** %d\n", req.Year)
	}
	if req.MediaType != "" {
		fmt.Fprintf(&b, "**Type:** %s\n", req.MediaType)
	}
	if req.Resolution != "" {
		fmt.Fprintf(&b, "**Resolution:** %s\n", req.Resolution)
	}
	if req.VideoCodec != "" {
		fmt.Fprintf(&b, "**Video Codec:** %s\n", req.VideoCodec)
	}
	if req.AudioCodec != "" {
		fmt.Fprintf(&b, "**Audio Codec:** %s\n", req.AudioCodec)
	}
	if len(req.Languages) > 0 {
		fmt.Fprintf(&b, "**Languages:** %s\n", strings.Join(req.Languages, ", "))
	}
	if overview != "" {
		fmt.Fprintf(&b, "\n**Overview:**\n%s\n", overview)
	}
	if len(genres) > 0 {
		fmt.Fprintf(&b, "\n**Genres:** %s\n", strings.Join(genres, ", "))
	}
	return b.String()
}

// pacer enforces a per-minute request budget with a sliding window.
type pacer struct {
	mu     sync.Mutex
	window []time.Time
	perMn  int
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func newPacer(perMn int) *pacer {
	return &pacer{
		perMn: perMn,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// wait blocks until the request fits the per-minute budget. The slot is
// claimed only once the wait is over, so a delayed request counts against
// the window at its send time, not at its admission time.
func (p *pacer) wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		now := p.now()
		cutoff := now.Add(-time.Minute)
		kept := p.window[:0]
		for _, t := range p.window {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		p.window = kept

		if len(p.window) < p.perMn {
			p.window = append(p.window, now)
			p.mu.Unlock()
			return nil
		}
		delay := time.Minute - now.Sub(p.window[0])
		p.mu.Unlock()

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
