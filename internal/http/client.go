// Package http is the signed transport used by the HAL client. Every request
// carries the standard headers, an HMAC signature or bearer token, and is
// retried on transient failures.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/hal-client/internal/auth"
	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for HTTP client logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
	Cached     bool
}

// Client is the signed HTTP transport.
type Client struct {
	baseURL     string
	credentials *auth.Credentials
	signer      *auth.Signer
	httpClient  *http.Client
	retryClient *retryablehttp.Client
	logger      Logger
	debug       bool
	userAgent   string
	attempts    int
	waitMin     time.Duration
	waitMax     time.Duration
	cache       hal.Cache
	cacheMaxAge time.Duration
	now         func() time.Time
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables logging of every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig sets the total number of attempts per request and the
// backoff bounds between them.
func WithRetryConfig(attempts int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.waitMin = waitMin
		c.waitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCache caches successful GET responses for maxAge.
func WithCache(cache hal.Cache, maxAge time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.cacheMaxAge = maxAge
	}
}

// WithClock replaces the clock used for the Timestamp header and cache
// expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// retryableStatuses are retried until attempts run out.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	constants.StatusAuthTimeout:    true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusGatewayTimeout:      true,
}

// signedHeaders are covered by the request signature.
var signedHeaders = []string{
	constants.HeaderAccept,
	constants.HeaderContentType,
	constants.HeaderPublicKey,
	constants.HeaderTimestamp,
	constants.HeaderURL,
}

type signingBodyKey struct{}

// NewClient creates a new HTTP client. Nil credentials sign with empty keys.
func NewClient(baseURL string, credentials *auth.Credentials, opts ...Option) *Client {
	if credentials == nil {
		credentials = auth.NewCredentials("", "", "")
	}

	client := &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		credentials: credentials,
		signer:      auth.NewSigner(credentials),
		httpClient:  &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger:      hal.NopLogger{},
		userAgent:   constants.DefaultUserAgent,
		attempts:    constants.DefaultRequestAttempts,
		waitMin:     constants.DefaultRetryWaitMin,
		waitMax:     constants.DefaultRetryWaitMax,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger == nil {
		client.logger = hal.NopLogger{}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = client.httpClient
	retryClient.RetryMax = max(client.attempts-1, 0)
	retryClient.RetryWaitMin = client.waitMin
	retryClient.RetryWaitMax = client.waitMax
	retryClient.Logger = &leveledLogger{logger: client.logger}
	retryClient.RequestLogHook = client.logAttempt
	retryClient.CheckRetry = checkRetry
	retryClient.PrepareRetry = client.resign
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client.retryClient = retryClient

	return client
}

// Do performs the request. Successful GETs are served from and stored in the
// cache when one is configured. A 498 response triggers a single token
// refresh and resend. For non-2xx responses the Response is returned along
// with a *hal.TransportError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.resolveURL(req.Path, req.Query)
	cacheable := c.cache != nil && req.Method == http.MethodGet

	if cacheable {
		if entry, err := c.cache.Get(ctx, fullURL); err == nil {
			c.logger.Debug("cache hit", map[string]interface{}{"url": fullURL})

			return &Response{StatusCode: http.StatusOK, Body: entry.Data, URL: fullURL, Cached: true}, nil
		}
	}

	resp, err := c.send(ctx, req, fullURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == constants.StatusTokenExpired {
		resp, err = c.refreshAndResend(ctx, req, fullURL, resp)
		if err != nil {
			return resp, err
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, hal.NewTransportError(req.Method, fullURL, resp.StatusCode, resp.Body)
	}

	if cacheable {
		c.store(ctx, fullURL, resp.Body)
	}

	return resp, nil
}

// Send performs the request and decodes the JSON response. Arrays are
// wrapped as {"items": [...]} and scalars as {"value": ...}; an empty body
// yields an empty object.
func (c *Client) Send(ctx context.Context, req *Request) (map[string]interface{}, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding response from %s %s: %w", req.Method, resp.URL, err)
	}

	return payload, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Options performs an OPTIONS request.
func (c *Client) Options(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodOptions, Path: path})
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) refreshAndResend(ctx context.Context, req *Request, fullURL string, expired *Response) (*Response, error) {
	_, err := c.credentials.RefreshToken(ctx, inBandToken(expired.Body))
	if err != nil {
		return expired, &hal.TransportError{
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: expired.StatusCode,
			Kind:       hal.ErrUnauthorized,
			Cause:      err,
		}
	}

	c.logger.Info("token refreshed", map[string]interface{}{"url": fullURL})

	return c.send(ctx, req, fullURL)
}

func (c *Client) send(ctx context.Context, req *Request, fullURL string) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	headers := c.standardHeaders(fullURL)

	authorization, err := c.signer.Authorization(headers, body)
	if err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	signingCtx := context.WithValue(ctx, signingBodyKey{}, body)

	httpReq, err := retryablehttp.NewRequestWithContext(signingCtx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for name, value := range headers {
		httpReq.Header.Set(name, value)
	}

	httpReq.Header.Set(constants.HeaderAuthorization, authorization)
	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		return nil, &hal.TransportError{Method: req.Method, URL: fullURL, Kind: hal.ErrTransport, Cause: err}
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &hal.TransportError{
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: httpResp.StatusCode,
			Kind:       hal.ErrTransport,
			Cause:      fmt.Errorf("reading response body: %w", err),
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"url":    fullURL,
			"bytes":  len(respBody),
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		URL:        fullURL,
	}, nil
}

// standardHeaders returns the signed header set for one attempt.
func (c *Client) standardHeaders(fullURL string) map[string]string {
	return map[string]string{
		constants.HeaderAccept:      constants.MediaTypeHAL,
		constants.HeaderContentType: constants.MediaTypeJSON,
		constants.HeaderPublicKey:   c.credentials.PublicKey,
		constants.HeaderTimestamp:   c.now().UTC().Format(time.RFC3339),
		constants.HeaderURL:         fullURL,
	}
}

// resign stamps a fresh Timestamp on a retried request and signs it again.
func (c *Client) resign(req *http.Request) error {
	headers := make(map[string]string, len(signedHeaders))
	for _, name := range signedHeaders {
		headers[name] = req.Header.Get(name)
	}

	headers[constants.HeaderTimestamp] = c.now().UTC().Format(time.RFC3339)

	body, _ := req.Context().Value(signingBodyKey{}).([]byte)

	authorization, err := c.signer.Authorization(headers, body)
	if err != nil {
		return fmt.Errorf("signing retried request: %w", err)
	}

	req.Header.Set(constants.HeaderTimestamp, headers[constants.HeaderTimestamp])
	req.Header.Set(constants.HeaderAuthorization, authorization)

	return nil
}

func (c *Client) resolveURL(path string, query url.Values) string {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		fullURL = c.baseURL + path
	}

	if len(query) == 0 {
		return fullURL
	}

	separator := "?"
	if strings.Contains(fullURL, "?") {
		separator = "&"
	}

	return fullURL + separator + query.Encode()
}

// store caches body under the request URL and under the document's self link.
func (c *Client) store(ctx context.Context, fullURL string, body []byte) {
	entry := &hal.CacheEntry{Data: body}
	if c.cacheMaxAge > 0 {
		entry.ExpiresAt = c.now().Add(c.cacheMaxAge)
	}

	keys := []string{fullURL}
	if self := selfHref(body); self != "" {
		if resolved := c.resolveURL(self, nil); resolved != fullURL {
			keys = append(keys, resolved)
		}
	}

	for _, key := range keys {
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn("failed to cache response", map[string]interface{}{"url": key, "error": err.Error()})
		}
	}
}

func (c *Client) logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}

	c.logger.Warn("retrying request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt + 1,
	})
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	return retryableStatuses[resp.StatusCode], nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}

		return data, nil
	}
}

func decodePayload(body []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]interface{}{}, nil
	}

	var value interface{}
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, err
	}

	switch typed := value.(type) {
	case map[string]interface{}:
		return typed, nil
	case []interface{}:
		return map[string]interface{}{constants.KeyItems: typed}, nil
	default:
		return map[string]interface{}{constants.KeyValue: typed}, nil
	}
}

// inBandToken extracts a replacement token sent with a 498 response.
func inBandToken(body []byte) string {
	var payload struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return payload.Token
}

func selfHref(body []byte) string {
	var payload struct {
		Links map[string]json.RawMessage `json:"_links"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var self struct {
		Href string `json:"href"`
	}

	raw, ok := payload.Links[constants.KeySelf]
	if !ok {
		return ""
	}

	if err := json.Unmarshal(raw, &self); err != nil {
		return ""
	}

	return self.Href
}
