package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrNotFound is returned when upstream has no record for the requested ISBN.
var ErrNotFound = errors.New("catalog: not found")

// ErrInvalidISBN is returned when an ISBN cannot be normalized.
var ErrInvalidISBN = errors.New("catalog: invalid isbn")

// Result contains the bibliographic data used to enrich a book.
type Result struct {
	Title         string
	Authors       []string
	Publisher     string
	PageCount     int
	PublishedYear int
}

// Client defines the contract for querying the upstream book catalog.
type Client interface {
	Lookup(ctx context.Context, isbn string) (*Result, error)
}

// NopClient never finds anything. Used when no catalog is configured.
type NopClient struct{}

func (NopClient) Lookup(context.Context, string) (*Result, error) { return nil, ErrNotFound }

// HTTPClient implements Client over HTTP behind a circuit breaker.
type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed catalog client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse catalog url: %q is not absolute", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing book is a valid answer, not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog: circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		breaker: gobreaker.NewCircuitBreaker[*Result](settings),
		logger:  logger,
	}, nil
}

// BreakerState reports the circuit breaker state for diagnostics.
func (c *HTTPClient) BreakerState() string {
	return c.breaker.State().String()
}

// Lookup retrieves bibliographic data by ISBN.
func (c *HTTPClient) Lookup(ctx context.Context, isbn string) (*Result, error) {
	normalized, err := NormalizeISBN(isbn)
	if err != nil {
		return nil, err
	}
	return c.breaker.Execute(func() (*Result, error) {
		return c.fetch(ctx, normalized)
	})
}

func (c *HTTPClient) fetch(ctx context.Context, isbn string) (*Result, error) {
	rel := &url.URL{Path: "/books"}
	q := rel.Query()
	q.Set("isbn", isbn)
	rel.RawQuery = q.Encode()
	endpoint := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		return convertToResult(payload), nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		c.logger.Warn("catalog: unexpected status", zap.Int("status", resp.StatusCode), zap.String("isbn", isbn))
		return nil, fmt.Errorf("catalog: upstream returned %d", resp.StatusCode)
	}
}

type apiResponse struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     *string  `json:"publisher"`
	PageCount     *int     `json:"pageCount"`
	PublishedDate *string  `json:"publishedDate"`
}

func convertToResult(payload apiResponse) *Result {
	result := &Result{Title: strings.TrimSpace(payload.Title)}
	for _, author := range payload.Authors {
		if a := strings.TrimSpace(author); a != "" {
			result.Authors = append(result.Authors, a)
		}
	}
	if payload.Publisher != nil {
		result.Publisher = strings.TrimSpace(*payload.Publisher)
	}
	if payload.PageCount != nil && *payload.PageCount > 0 {
		result.PageCount = *payload.PageCount
	}
	if payload.PublishedDate != nil {
		result.PublishedYear = parseYear(*payload.PublishedDate)
	}
	return result
}

// parseYear accepts "2006", "2006-01" or "2006-01-02".
func parseYear(value string) int {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Year()
		}
	}
	return 0
}

// NormalizeISBN strips separators and validates the ISBN-10 or ISBN-13 checksum.
func NormalizeISBN(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		switch {
		case r >= '0' && r <= '9', r == 'X':
			b.WriteRune(r)
		case r == '-' || r == ' ':
		default:
			return "", ErrInvalidISBN
		}
	}
	isbn := b.String()
	switch len(isbn) {
	case 10:
		sum := 0
		for i, r := range isbn {
			var d int
			if r == 'X' {
				if i != 9 {
					return "", ErrInvalidISBN
				}
				d = 10
			} else {
				d = int(r - '0')
			}
			sum += d * (10 - i)
		}
		if sum%11 != 0 {
			return "", ErrInvalidISBN
		}
	case 13:
		sum := 0
		for i, r := range isbn {
			if r == 'X' {
				return "", ErrInvalidISBN
			}
			d := int(r - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		if sum%10 != 0 {
			return "", ErrInvalidISBN
		}
	default:
		return "", ErrInvalidISBN
	}
	return isbn, nil
}
