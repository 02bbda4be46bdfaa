// Package matcher resolves parsed release names to TMDB identities.
//
// Resolution consults the lookup cache first, then queries TMDB and scores
// every candidate against the parsed title and year. When nothing clears
// the acceptance threshold the query is progressively shortened, dropping
// trailing words, down to a configured floor.
package matcher

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"mediaid/internal/analyzer"
	"mediaid/internal/logging"
	"mediaid/internal/matchcache"
	"mediaid/internal/services"
	"mediaid/internal/textutil"
	"mediaid/internal/tmdb"
)

// Confidence grades how trustworthy a resolved identity is.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
	ConfidenceNone Confidence = "none"
)

// Scoring weights. A candidate needs either a near-exact title or a decent
// title plus a matching year to clear the default acceptance threshold.
const (
	exactTitleScore   = 1.0
	containmentScore  = 0.55
	similarityCeiling = 0.75
	yearExactBonus    = 0.25
	yearAdjacentBonus = 0.12
)

// Result is the outcome of resolving one parsed name.
type Result struct {
	TMDBID     int64      `json:"tmdb_id,omitempty"`
	MediaType  string     `json:"media_type,omitempty"`
	Title      string     `json:"title,omitempty"`
	Year       int        `json:"year,omitempty"`
	Overview   string     `json:"overview,omitempty"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Query      string     `json:"query,omitempty"`
	Attempts   int        `json:"attempts,omitempty"`
	FromCache  bool       `json:"from_cache,omitempty"`
}

// Matched reports whether an identity was resolved at all.
func (r Result) Matched() bool {
	return r.TMDBID != 0
}

// LookupCache is the persistence surface the matcher needs. It is satisfied
// by *matchcache.Store.
type LookupCache interface {
	Get(ctx context.Context, key string) (*matchcache.Entry, bool, error)
	Put(ctx context.Context, entry matchcache.Entry, ttl time.Duration) error
}

// Options tune resolution behavior. Zero values fall back to defaults,
// except NetworkRetries, where zero means the first failure is final.
type Options struct {
	AcceptThreshold float64
	ShortenFloor    float64
	MaxAttempts     int
	NetworkRetries  int
	RetryBaseDelay  time.Duration
	HitTTL          time.Duration
	NegativeTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.AcceptThreshold <= 0 {
		o.AcceptThreshold = 0.6
	}
	if o.ShortenFloor <= 0 {
		o.ShortenFloor = 0.6
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 4
	}
	if o.NetworkRetries < 0 {
		o.NetworkRetries = 0
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 250 * time.Millisecond
	}
	if o.HitTTL <= 0 {
		o.HitTTL = 168 * time.Hour
	}
	if o.NegativeTTL <= 0 {
		o.NegativeTTL = 6 * time.Hour
	}
	return o
}

// Matcher resolves identities against TMDB with caching.
type Matcher struct {
	searcher tmdb.Searcher
	cache    LookupCache
	opts     Options
	logger   *slog.Logger
}

// New builds a Matcher. The cache may be nil, which disables persistence.
func New(searcher tmdb.Searcher, cache LookupCache, opts Options, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{
		searcher: searcher,
		cache:    cache,
		opts:     opts.withDefaults(),
		logger:   logging.NewComponentLogger(logger, "matcher"),
	}
}

// Resolve finds the TMDB identity for a parsed release name. Cache hits
// short-circuit the network. Transient network failures propagate as errors
// and are never cached; a completed search with no acceptable candidate is
// cached as a negative entry so it is not retried until it expires.
func (m *Matcher) Resolve(ctx context.Context, parsed analyzer.ParsedName) (*Result, error) {
	key := parsed.NormalizedKey()

	if m.cache != nil {
		entry, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			m.logger.Debug("cache hit", logging.String("key", key), logging.String("confidence", entry.Confidence))
			return &Result{
				TMDBID:     entry.TMDBID,
				MediaType:  entry.MediaType,
				Title:      entry.Title,
				Year:       entry.Year,
				Overview:   entry.Overview,
				Score:      entry.Score,
				Confidence: Confidence(entry.Confidence),
				FromCache:  true,
			}, nil
		}
	}

	result, err := m.resolveRemote(ctx, parsed)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		ttl := m.opts.NegativeTTL
		if result.Confidence == ConfidenceHigh {
			ttl = m.opts.HitTTL
		}
		entry := matchcache.Entry{
			Key:        key,
			TMDBID:     result.TMDBID,
			MediaType:  result.MediaType,
			Title:      result.Title,
			Year:       result.Year,
			Overview:   result.Overview,
			Confidence: string(result.Confidence),
			Score:      result.Score,
		}
		if err := m.cache.Put(ctx, entry, ttl); err != nil {
			m.logger.Warn("cache write failed", logging.String("key", key), logging.Error(err))
		}
	}
	return result, nil
}

func (m *Matcher) resolveRemote(ctx context.Context, parsed analyzer.ParsedName) (*Result, error) {
	words := strings.Fields(parsed.RawTitle)
	best := &Result{Confidence: ConfidenceNone}
	if len(words) == 0 {
		return best, nil
	}
	minWords := shortenFloor(len(words), m.opts.ShortenFloor)
	attempts := 0

	for len(words) >= minWords && attempts < m.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "matcher", "resolve", "context canceled", err)
		}
		attempts++
		query := strings.Join(words, " ")

		response, err := m.searchWithRetry(ctx, parsed, query)
		if err != nil {
			return nil, err
		}

		for _, candidate := range response.Results {
			score := scoreCandidate(parsed, candidate)
			if score <= 0 {
				continue
			}
			if score <= best.Score && best.Matched() {
				continue
			}
			best = &Result{
				TMDBID:    candidate.ID,
				MediaType: mediaTypeFor(parsed, candidate),
				Title:     candidate.DisplayTitle(),
				Year:      candidate.Year(),
				Overview:  candidate.Overview,
				Score:     score,
			}
		}
		best.Attempts = attempts
		best.Query = query

		if best.Matched() && best.Score >= m.opts.AcceptThreshold {
			best.Confidence = ConfidenceHigh
			m.logger.Debug("accepted candidate",
				logging.String("query", query),
				logging.String("title", best.Title),
				logging.Float64("score", best.Score),
				logging.Int("attempt", attempts))
			return best, nil
		}
		words = words[:len(words)-1]
	}

	// A candidate below the acceptance threshold is still returned as a
	// best-effort fallback; only an empty search yields a none result.
	if best.Matched() {
		best.Confidence = ConfidenceLow
	} else {
		best.Confidence = ConfidenceNone
	}
	m.logger.Debug("no acceptable candidate",
		logging.String("title", parsed.RawTitle),
		logging.Float64("best_score", best.Score),
		logging.Int("attempts", attempts))
	return best, nil
}

func (m *Matcher) searchWithRetry(ctx context.Context, parsed analyzer.ParsedName, query string) (*tmdb.Response, error) {
	opts := tmdb.SearchOptions{Year: parsed.Year}

	response, err := retry.DoWithData(
		func() (*tmdb.Response, error) {
			return m.search(ctx, parsed.ContentType, query, opts)
		},
		retry.Context(ctx),
		retry.Attempts(uint(m.opts.NetworkRetries)+1),
		retry.Delay(m.opts.RetryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(services.IsTransient),
	)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (m *Matcher) search(ctx context.Context, contentType analyzer.ContentType, query string, opts tmdb.SearchOptions) (*tmdb.Response, error) {
	switch contentType {
	case analyzer.TypeMovie:
		return m.searcher.SearchMovie(ctx, query, opts)
	case analyzer.TypeSeries, analyzer.TypeAnime:
		return m.searcher.SearchTV(ctx, query, opts)
	default:
		return m.searcher.SearchMulti(ctx, query, opts)
	}
}

// scoreCandidate compares the parsed title against a TMDB candidate. Both
// the localized and original titles are considered; the better one counts.
func scoreCandidate(parsed analyzer.ParsedName, candidate tmdb.Result) float64 {
	want := textutil.Normalize(parsed.RawTitle)
	score := titleScore(want, textutil.Normalize(candidate.DisplayTitle()))
	if candidate.OriginalTitle != "" {
		if alt := titleScore(want, textutil.Normalize(candidate.OriginalTitle)); alt > score {
			score = alt
		}
	}

	if parsed.Year > 0 && candidate.Year() > 0 {
		switch diff := parsed.Year - candidate.Year(); {
		case diff == 0:
			score += yearExactBonus
		case diff == 1 || diff == -1:
			score += yearAdjacentBonus
		}
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func titleScore(want, got string) float64 {
	if want == "" || got == "" {
		return 0
	}
	if want == got {
		return exactTitleScore
	}
	score := similarityCeiling * textutil.Similarity(want, got)
	if strings.Contains(got, want) || strings.Contains(want, got) {
		if score < containmentScore {
			score = containmentScore
		}
	}
	return score
}

func mediaTypeFor(parsed analyzer.ParsedName, candidate tmdb.Result) string {
	if candidate.MediaType != "" {
		return candidate.MediaType
	}
	if parsed.ContentType == analyzer.TypeMovie {
		return "movie"
	}
	return "tv"
}

// shortenFloor computes the minimum word count the relaxation loop may
// shrink the query to. A single-word title never shortens below itself.
func shortenFloor(wordCount int, fraction float64) int {
	if wordCount <= 1 {
		return wordCount
	}
	floor := int(float64(wordCount) * fraction)
	if floor < 1 {
		floor = 1
	}
	return floor
}
