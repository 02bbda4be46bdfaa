// Package qbittorrent implements the subset of the qBittorrent WebUI API v2
// used to enumerate and export seeded torrents.
package qbittorrent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"mediaid/internal/services"
)

// Torrent mirrors one entry from torrents/info.
type Torrent struct {
	Hash        string `json:"hash"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Tags        string `json:"tags"`
	Size        int64  `json:"size"`
	SavePath    string `json:"save_path"`
	ContentPath string `json:"content_path"`
	Private     bool   `json:"private"`
}

// TagList splits the comma-separated tag field.
func (t Torrent) TagList() []string {
	if strings.TrimSpace(t.Tags) == "" {
		return nil
	}
	parts := strings.Split(t.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// Properties mirrors torrents/properties.
type Properties struct {
	Comment        string `json:"comment"`
	CreatedBy      string `json:"created_by"`
	CreationDate   int64  `json:"creation_date"`
	TotalSize      int64  `json:"total_size"`
	PieceSize      int64  `json:"piece_size"`
	IsPrivate      bool   `json:"is_private"`
	SeedingTimeSec int64  `json:"seeding_time"`
}

// File mirrors one entry from torrents/files.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Filter narrows torrents/info results server-side.
type Filter struct {
	Category string
	Tag      string
}

// Client talks to a qBittorrent WebUI endpoint. Login must be called before
// any other operation; the session cookie is held in the client's jar.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The replacement must
// carry a cookie jar or authentication will not stick.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a qBittorrent client for the given WebUI URL.
func New(baseURL, username, password string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "qbittorrent", "new", "webui url required", nil)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "qbittorrent", "new", "create cookie jar", err)
	}
	client := &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Login authenticates against the WebUI and stores the session cookie.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return services.Wrap(services.ErrValidation, "qbittorrent", "login", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapNetworkError("login", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "qbittorrent", "login", "read response", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(string(body), "Ok") {
		return services.Wrap(services.ErrConfiguration, "qbittorrent", "login",
			fmt.Sprintf("authentication rejected (status %d)", resp.StatusCode), nil)
	}
	return nil
}

// Torrents lists torrents, optionally filtered by category or tag.
func (c *Client) Torrents(ctx context.Context, filter Filter) ([]Torrent, error) {
	params := url.Values{}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}
	if filter.Tag != "" {
		params.Set("tag", filter.Tag)
	}
	var torrents []Torrent
	if err := c.getJSON(ctx, "/api/v2/torrents/info", params, &torrents); err != nil {
		return nil, err
	}
	return torrents, nil
}

// Properties fetches extended metadata for one torrent.
func (c *Client) Properties(ctx context.Context, hash string) (*Properties, error) {
	if hash == "" {
		return nil, services.Wrap(services.ErrValidation, "qbittorrent", "properties", "hash required", nil)
	}
	params := url.Values{}
	params.Set("hash", hash)
	var props Properties
	if err := c.getJSON(ctx, "/api/v2/torrents/properties", params, &props); err != nil {
		return nil, err
	}
	return &props, nil
}

// Files lists the content files of one torrent.
func (c *Client) Files(ctx context.Context, hash string) ([]File, error) {
	if hash == "" {
		return nil, services.Wrap(services.ErrValidation, "qbittorrent", "files", "hash required", nil)
	}
	params := url.Values{}
	params.Set("hash", hash)
	var files []File
	if err := c.getJSON(ctx, "/api/v2/torrents/files", params, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// LargestFile returns the biggest content file, nil when the torrent is
// empty. Useful for picking the main video for analysis.
func LargestFile(files []File) *File {
	var largest *File
	for i := range files {
		if largest == nil || files[i].Size > largest.Size {
			largest = &files[i]
		}
	}
	return largest
}

// Export downloads the .torrent file for the given hash. This reuses the
// metainfo qBittorrent already holds instead of rebuilding it from disk.
func (c *Client) Export(ctx context.Context, hash string) ([]byte, error) {
	if hash == "" {
		return nil, services.Wrap(services.ErrValidation, "qbittorrent", "export", "hash required", nil)
	}
	params := url.Values{}
	params.Set("hash", hash)

	resp, err := c.get(ctx, "/api/v2/torrents/export", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "qbittorrent", "export", "read torrent body", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "qbittorrent", "request", "decode response", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "qbittorrent", "request", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapNetworkError("request", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrConfiguration, "qbittorrent", "request", "session expired or not authenticated", nil)
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrNotFound, "qbittorrent", "request", "torrent not found", nil)
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransient, "qbittorrent", "request",
			fmt.Sprintf("webui returned %d", resp.StatusCode), nil)
	default:
		resp.Body.Close()
		return nil, services.Wrap(services.ErrExternalTool, "qbittorrent", "request",
			fmt.Sprintf("webui returned %d", resp.StatusCode), nil)
	}
}

func wrapNetworkError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "qbittorrent", op, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, "qbittorrent", op, "request timed out", err)
	}
	return services.Wrap(services.ErrTransient, "qbittorrent", op, "execute request", err)
}
