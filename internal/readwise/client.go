package readwise

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/highlights-sync/internal/entities"
)

const (
	DefaultBaseURL  = "https://readwise.io/api/v2"
	DefaultPageSize = 1000

	defaultTimeout  = 30 * time.Second
	maxErrorMessage = 512
)

// Client talks to the Readwise v2 list endpoints. It holds no sync state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	timeout    time.Duration
}

type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout. It applies to a client given
// with WithHTTPClient too, without modifying the caller's copy.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPageSize sets the page_size hint sent with list requests.
func WithPageSize(pageSize int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// NewClient creates a new Readwise API client
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		httpClient := *c.httpClient
		httpClient.Timeout = c.timeout
		c.httpClient = &httpClient
	}
	return c
}

// listResponse is the envelope of every paginated Readwise v2 list endpoint.
type listResponse[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// FetchBooks returns every book highlighted after since, following
// pagination until the last page.
func (c *Client) FetchBooks(ctx context.Context, token string, since time.Time) ([]entities.Book, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(c.pageSize))
	q.Set("category", "books")
	q.Set("last_highlighted_at__gt", formatTimestamp(since))

	return fetchAll[entities.Book](ctx, c, token, c.baseURL+"/books/?"+q.Encode())
}

// FetchHighlights returns every highlight made after since, following
// pagination until the last page.
func (c *Client) FetchHighlights(ctx context.Context, token string, since time.Time) ([]entities.Highlight, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(c.pageSize))
	q.Set("highlighted_at__gt", formatTimestamp(since))

	return fetchAll[entities.Highlight](ctx, c, token, c.baseURL+"/highlights/?"+q.Encode())
}

// ValidateToken checks if a token is valid by calling the auth endpoint
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	resp, err := c.get(ctx, c.baseURL+"/auth/", token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// fetchAll walks the next links starting at pageURL. Nothing is returned
// unless every page was fetched and decoded. Next links must stay on the
// API host, since every request carries the token, and must not repeat.
func fetchAll[T any](ctx context.Context, c *Client, token, pageURL string) ([]T, error) {
	var all []T
	seen := make(map[string]bool)

	for pageURL != "" {
		if seen[pageURL] {
			return nil, &RequestError{Message: "pagination loop: next page " + pageURL + " was already fetched"}
		}
		seen[pageURL] = true

		page, err := fetchPage[T](ctx, c, token, pageURL)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		pageURL = ""
		if page.Next != nil && *page.Next != "" {
			next, err := c.resolveNext(*page.Next)
			if err != nil {
				return nil, err
			}
			pageURL = next
		}
	}

	return all, nil
}

// resolveNext resolves a next link against the base URL and rejects links
// pointing at another scheme or host.
func (c *Client) resolveNext(next string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", &RequestError{Message: "invalid base URL: " + err.Error(), Err: err}
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", &RequestError{Message: "invalid next page URL: " + err.Error(), Err: err}
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != base.Scheme || resolved.Host != base.Host {
		return "", &RequestError{Message: "next page URL leaves " + base.Host + ": " + resolved.Host}
	}
	return resolved.String(), nil
}

func fetchPage[T any](ctx context.Context, c *Client, token, pageURL string) (*listResponse[T], error) {
	resp, err := c.get(ctx, pageURL, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var page listResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response: " + err.Error(),
			Err:        err,
		}
	}
	return &page, nil
}

func (c *Client) get(ctx context.Context, rawURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &RequestError{Message: "failed to create request: " + err.Error(), Err: err}
	}

	req.Header.Set("Authorization", "Token "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Message: err.Error(), Err: err}
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessage))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &RequestError{StatusCode: resp.StatusCode, Message: message}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
