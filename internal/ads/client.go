// Package ads is a client for the NASA Astrophysics Data System API.
//
// It covers the two calls the bibliography watcher needs: listing the
// bibcodes of a library and exporting formatted records for a set of
// bibcodes.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/adsbib/internal/journal"
)

const (
	// BaseURL is the ADS API base URL.
	BaseURL = "https://api.adsabs.harvard.edu/v1"

	// DefaultTimeout bounds each HTTP request. Expiry is reported as ErrTransient.
	DefaultTimeout = 60 * time.Second

	// RateLimit keeps bursts well under the ADS daily quota.
	RateLimit = 2.0

	// MaxLibraryRows is the number of library members requested per fetch.
	MaxLibraryRows = 10000
)

// Client is a rate-limited HTTP client for the ADS API.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	token       string
	baseURL     string
	transformer *journal.Transformer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTransformer sets the journal transformer applied to exports.
func WithTransformer(t *journal.Transformer) ClientOption {
	return func(c *Client) {
		c.transformer = t
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a client authenticated with token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		token:      token,
		baseURL:    BaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transformer == nil {
		c.transformer = journal.NewTransformer(nil)
	}

	return c
}

// libraryResponse mirrors GET /biblib/libraries/{id}. Pointers distinguish
// missing fields from empty ones.
type libraryResponse struct {
	Documents *[]string `json:"documents"`
	Metadata  *struct {
		ID               string  `json:"id"`
		Name             *string `json:"name"`
		DateLastModified *string `json:"date_last_modified"`
	} `json:"metadata"`
}

// exportResponse mirrors POST /export/{format}.
type exportResponse struct {
	Export *string `json:"export"`
}

// errorResponse is the body ADS sends alongside error statuses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchLibrary fetches the bibcodes (up to MaxLibraryRows) and metadata of
// an ADS library.
func (c *Client) FetchLibrary(ctx context.Context, libraryID string) (*Library, error) {
	if libraryID == "" {
		return nil, fmt.Errorf("%w: empty library id", ErrInvalidArgument)
	}

	endpoint := "/biblib/libraries/" + url.PathEscape(libraryID)
	query := url.Values{"rows": {strconv.Itoa(MaxLibraryRows)}}

	body, err := c.do(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp libraryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing library %s: %v", ErrTransient, libraryID, err)
	}
	if resp.Documents == nil || resp.Metadata == nil ||
		resp.Metadata.Name == nil || resp.Metadata.DateLastModified == nil {
		return nil, fmt.Errorf("%w: library %s: missing documents or metadata", ErrProtocol, libraryID)
	}

	return &Library{
		ID:           libraryID,
		Name:         *resp.Metadata.Name,
		Bibcodes:     *resp.Documents,
		LastModified: *resp.Metadata.DateLastModified,
	}, nil
}

// Export returns formatted records for bibcodes in one request, with journal
// names rewritten per opts.Journal. Duplicate bibcodes are removed by ADS.
func (c *Client) Export(ctx context.Context, bibcodes []string, opts ExportOptions) (string, error) {
	if len(bibcodes) == 0 {
		return "", fmt.Errorf("%w: no bibcodes to export", ErrInvalidArgument)
	}

	path, template := opts.endpoint()
	req := map[string]any{"bibcode": bibcodes}
	if opts.Sort != "" {
		req["sort"] = opts.Sort
	}
	if template != "" {
		req["format"] = template
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/export/"+url.PathEscape(path), payload)
	if err != nil {
		return "", err
	}

	var resp exportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: parsing export: %v", ErrTransient, err)
	}
	if resp.Export == nil {
		return "", fmt.Errorf("%w: export response has no \"export\" field", ErrProtocol)
	}

	return c.transformer.Transform(*resp.Export, opts.Journal)
}

// do sends an authenticated request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "adsbib")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrTransient, err)
	}

	if err := checkHTTPErrors(resp.StatusCode, body, endpoint); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPErrors maps a non-2xx status onto the error taxonomy.
func checkHTTPErrors(status int, body []byte, endpoint string) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := errorMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, msg)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrTransient, status, msg)
	default:
		return &APIError{StatusCode: status, Message: msg, Endpoint: endpoint}
	}
}

// errorMessage extracts the message from an ADS error body, if any.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// IsCanceled reports whether err comes from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
