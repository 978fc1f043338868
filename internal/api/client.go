// Package api is the outbound HTTP request gateway. It attaches common
// headers, injects the current auth token when one is available, observes
// context cancellation, and normalizes every failure into one taxonomy
// (NetworkError, ServerError, ValidationError). It knows nothing about
// caching; the query cache is its only caller on the read path.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenFunc returns the current bearer token, or "" when unauthenticated.
type TokenFunc func() string

// Client wraps outbound HTTP calls.
type Client struct {
	httpClient *http.Client
	token      TokenFunc
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration
	// Token supplies the bearer token attached to authenticated requests.
	Token TokenFunc
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewClient builds a gateway client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		token:      opts.Token,
		logger:     logger,
	}
}

// GetJSON issues a GET to rawURL with params as the query string and decodes
// the response body into out. Pass a *json.RawMessage to keep the body raw.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform", "mobile")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.logger.Debug("outbound request", "method", req.Method, "url", u.Redacted(), "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation is not a transport failure; let the caller see it
		// unwrapped so superseded fetches are recognized as such.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Debug("request failed", "request_id", requestID, "error", err)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("request rejected", "request_id", requestID, "status", resp.StatusCode)
		return normalizeFailure(resp.StatusCode, body, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", u.Path, err)
	}
	return nil
}

// failureBody is the superset of error shapes the remote APIs produce. Only
// the fields the taxonomy needs are parsed; anything else is ignored.
type failureBody struct {
	ResultMessage string         `json:"resultMessage"`
	Message       string         `json:"message"`
	Errors        map[string]any `json:"errors"`
	ResultStatus  *bool          `json:"resultStatus"`
	ResultOutput  map[string]any `json:"resultOutput"`
}

func normalizeFailure(status int, body []byte, transportStatus string) error {
	var parsed failureBody
	_ = json.Unmarshal(body, &parsed)

	fields := parsed.Errors
	if len(fields) == 0 && parsed.ResultStatus != nil && !*parsed.ResultStatus {
		fields = parsed.ResultOutput
	}
	if len(fields) > 0 {
		return &ValidationError{Status: status, Fields: stringifyFields(fields)}
	}

	message := parsed.ResultMessage
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
		// A non-JSON HTML error page is noise, not a message.
		if strings.HasPrefix(message, "<") {
			message = ""
		}
	}
	if message == "" {
		message = transportStatus
	}
	return &ServerError{Status: status, Message: message}
}

func stringifyFields(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for field, v := range in {
		switch val := v.(type) {
		case string:
			out[field] = val
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[field] = strings.Join(parts, "; ")
		default:
			out[field] = fmt.Sprint(val)
		}
	}
	return out
}

// IsValidation reports whether err carries a field validation map.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
