package apiclient

import (
	"bytes"
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

	"go-todo-client/internal/event"
	"go-todo-client/internal/model"
	"go-todo-client/internal/storage"
	"go-todo-client/pkg/apierror"
)

const (
	requestIDHeader = "X-Request-ID"
	maxResponseSize = 8 << 20
)

// Config holds what a Client needs. Credentials is required; everything else
// has a default.
type Config struct {
	// BaseURL is the root of the remote API (e.g. "http://localhost:8000").
	BaseURL string
	// Credentials is the slot read for bearer tokens and cleared on a
	// rejected credential.
	Credentials storage.CredentialStore
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for request logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Bus receives session.expired when a credential is rejected.
	Bus event.Bus
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
	// Now is the clock used to check token expiry. Defaults to time.Now.
	Now func() time.Time
}

// Client is the typed boundary to the remote API. It attaches the stored
// credential, classifies every failure into the apierror taxonomy and never
// retries.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	credentials storage.CredentialStore
	bus         event.Bus
	timeout     time.Duration
	now         func() time.Time
}

// Request describes one call. Body is JSON-encoded; Form, when set, is sent
// form-encoded instead.
type Request struct {
	Method string
	Path   string
	Body   any
	Form   url.Values
	Auth   bool
	// KeepSessionOnUnauthorized leaves the credential in place on a 401 so
	// the caller can decide what the rejection means.
	KeepSessionOnUnauthorized bool
}

func New(config Config) (*Client, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("apiclient: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid BaseURL %q", config.BaseURL)
	}
	if config.Credentials == nil {
		return nil, fmt.Errorf("apiclient: Credentials is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bus := config.Bus
	if bus == nil {
		bus = event.Nop{}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		httpClient:  httpClient,
		logger:      logger,
		credentials: config.Credentials,
		bus:         bus,
		timeout:     config.Timeout,
		now:         now,
	}, nil
}

// Do performs req and returns the raw success body. Failures are always
// *apierror.APIError.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	var token string
	if req.Auth {
		credential, ok := c.credentials.Get()
		if !ok {
			return nil, apierror.New(apierror.CodeUnauthenticated, "not logged in", "", 0)
		}
		if expiry, ok := TokenExpiry(credential.AccessToken); ok && !c.now().Before(expiry) {
			c.expireSession(credential.AccessToken, "token expired")
			return nil, apierror.New(apierror.CodeUnauthenticated, "session expired", "token expired at "+expiry.UTC().Format(time.RFC3339), 0)
		}
		token = credential.AccessToken
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(requestIDHeader)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed", "request_id", requestID, "method", req.Method, "path", req.Path, "error", err)
		return nil, apierror.Wrap(apierror.CodeUnavailable, fmt.Sprintf("%s %s failed", req.Method, req.Path), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apierror.Wrap(apierror.CodeUnavailable, "read response body", err)
	}

	c.logger.Debug("api request",
		"request_id", requestID,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := apierror.Classify(resp.StatusCode, extractDetail(body))
	if apiErr.Code == apierror.CodeUnauthenticated && req.Auth && !req.KeepSessionOnUnauthorized {
		c.expireSession(token, "credential rejected by server")
	}

	return nil, apiErr
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	var (
		bodyReader  io.Reader
		contentType string
	)

	switch {
	case req.Form != nil:
		bodyReader = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apierror.Wrap(apierror.CodeValidationRejected, "encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, apierror.Wrap(apierror.CodeUnavailable, "create request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, uuid.NewString())
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return httpReq, nil
}

// expireSession clears the stored credential, but only if it is still the
// one the failing request used; a stale 401 must not log out a newer session.
func (c *Client) expireSession(usedToken string, reason string) {
	current, ok := c.credentials.Get()
	if !ok || current.AccessToken != usedToken {
		return
	}

	if err := c.credentials.Clear(); err != nil {
		c.logger.Warn("clear rejected credential", "error", err)
	}

	c.logger.Info("session invalidated", "reason", reason)
	c.bus.Publish(event.New(event.TypeSessionExpired, "", map[string]string{"reason": reason}))
}

// extractDetail pulls a human-readable message out of an error body. It
// understands {"detail": "..."}, {"detail": [{"loc": [...], "msg": "..."}]}
// and the {"error": {"message": "..."}} envelope.
func extractDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}

	var parsed struct {
		Detail json.RawMessage `json:"detail"`
		Error  *struct {
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return ""
	}

	if len(parsed.Detail) > 0 {
		var text string
		if err := json.Unmarshal(parsed.Detail, &text); err == nil {
			return strings.TrimSpace(text)
		}

		var issues []model.ValidationIssue
		if err := json.Unmarshal(parsed.Detail, &issues); err == nil {
			return joinIssues(issues)
		}
	}

	if parsed.Error != nil {
		if parsed.Error.Details != "" {
			return strings.TrimSpace(parsed.Error.Message + ": " + parsed.Error.Details)
		}
		return strings.TrimSpace(parsed.Error.Message)
	}

	return strings.TrimSpace(parsed.Message)
}

func joinIssues(issues []model.ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		msg := strings.TrimSpace(issue.Msg)
		if msg == "" {
			continue
		}
		if field := issueField(issue.Loc); field != "" {
			msg = field + ": " + msg
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func issueField(loc []any) string {
	for i := len(loc) - 1; i >= 0; i-- {
		if name, ok := loc[i].(string); ok && name != "body" && name != "query" && name != "path" {
			return name
		}
	}
	return ""
}

func decode[T any](body []byte, what string) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, apierror.Wrap(apierror.CodeUnavailable, "decode "+what, err)
	}
	return out, nil
}

// IsUnavailable reports whether err is a transport or server-side failure.
func IsUnavailable(err error) bool {
	return apierror.Is(err, apierror.CodeUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
