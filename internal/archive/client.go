// Package archive is a client for the Internet Archive search and metadata
// APIs used to mirror a collection into the local catalog.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public archive endpoint.
const DefaultBaseURL = "https://archive.org"

const searchFields = "identifier,title,description,publicdate,creator,runtime"

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("archive item not found")

// StatusError reports an unexpected HTTP status from the API.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("archive request %s: unexpected status %d", e.URL, e.StatusCode)
}

// Config configures a Client.
type Config struct {
	BaseURL           string
	RequestsPerSecond float64 // <= 0 disables rate limiting
	MaxRetries        uint64
	RetryBaseDelay    time.Duration
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client talks to the archive's JSON APIs. Requests are rate limited and
// transient failures (network errors, 429 and 5xx) are retried with
// exponential backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	baseDelay  time.Duration
	logger     zerolog.Logger
}

// NewClient creates a new archive client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    limiter,
		maxRetries: cfg.MaxRetries,
		baseDelay:  baseDelay,
		logger:     logger.With().Str("component", "archive").Logger(),
	}
}

// SearchCollection returns one page of a collection, newest first.
func (c *Client) SearchCollection(ctx context.Context, collection string, rows, start int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", "collection:"+collection)
	q.Set("fl[]", searchFields)
	q.Set("rows", strconv.Itoa(rows))
	q.Set("start", strconv.Itoa(start))
	q.Set("sort[]", "publicdate desc")
	q.Set("output", "json")

	var resp searchResponse
	if err := c.getJSON(ctx, "/advancedsearch.php?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search collection %q: %w", collection, err)
	}
	return &resp.Response, nil
}

// GetMetadata fetches the metadata document for identifier.
func (c *Client) GetMetadata(ctx context.Context, identifier string) (*Metadata, error) {
	var meta Metadata
	if err := c.getJSON(ctx, "/metadata/"+url.PathEscape(identifier), &meta); err != nil {
		return nil, fmt.Errorf("get metadata %q: %w", identifier, err)
	}
	// Unknown identifiers answer 200 with an empty object.
	if len(meta.Files) == 0 && meta.Metadata.Title == "" && meta.Dir == "" {
		return nil, fmt.Errorf("get metadata %q: %w", identifier, ErrNotFound)
	}
	return &meta, nil
}

// ThumbnailURL returns the item image URL for identifier.
func (c *Client) ThumbnailURL(identifier string) string {
	return c.baseURL + "/services/img/" + url.PathEscape(identifier)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	reqURL := c.baseURL + path
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.fetch(ctx, reqURL, out)
		if err != nil && isTransient(err) && ctx.Err() == nil {
			c.logger.Debug().
				Err(err).
				Str("url", reqURL).
				Int("attempt", attempt).
				Msg("Archive request failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) fetch(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var decodeErr *decodeError
	if errors.Is(err, ErrNotFound) || errors.As(err, &decodeErr) {
		return false
	}
	// Anything else came from the transport.
	return true
}
