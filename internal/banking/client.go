// Package banking implements a typed client for the remote banking REST API.
package banking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/choiwab/julius-baer-side-quest/internal/log"
	"github.com/choiwab/julius-baer-side-quest/internal/telemetry"
)

// Scopes accepted by POST /authToken.
const (
	ScopeTransfer = "transfer"
	ScopeEnquiry  = "enquiry"
)

// tokenTTL is the assumed validity window of an issued token; the API does not
// report an expiry, so renewal is forced after this long.
const tokenTTL = time.Hour

const maxErrorBody = 4 << 10

// Client interacts with the banking API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	userAgent  string

	username string
	password string

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	tokenScope  string
}

// Options configures the client behavior.
type Options struct {
	Timeout               time.Duration
	ResponseHeaderTimeout time.Duration
	MaxRetries            int
	Backoff               time.Duration
	MaxBackoff            time.Duration
	RateLimit             rate.Limit
	RateBurst             int
	UserAgent             string
	Username              string
	Password              string
	BreakerThreshold      int
	BreakerReset          time.Duration
}

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
	defaultRateLimit  = 10
	defaultRateBurst  = 20
)

// retryStatus is the set of HTTP status codes that trigger a retry, matching
// the upstream gateway's transient failure modes.
var retryStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// New creates a banking API client.
func New(baseURL string, opts Options) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if u, err := url.Parse(trimmed); err == nil {
		if u.User != nil && opts.Username == "" {
			opts.Username = u.User.Username()
			if pass, ok := u.User.Password(); ok {
				opts.Password = pass
			}
		}
		u.User = nil
		trimmed = strings.TrimRight(u.String(), "/")
	}

	nopts := normalizeOptions(opts)
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: nopts.ResponseHeaderTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
	}

	return &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   nopts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		limiter:    rate.NewLimiter(nopts.RateLimit, nopts.RateBurst),
		breaker:    NewCircuitBreaker(nopts.BreakerThreshold, nopts.BreakerReset),
		maxRetries: nopts.MaxRetries,
		backoff:    nopts.Backoff,
		maxBackoff: nopts.MaxBackoff,
		userAgent:  nopts.UserAgent,
		username:   nopts.Username,
		password:   nopts.Password,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter only
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ResponseHeaderTimeout <= 0 {
		opts.ResponseHeaderTimeout = opts.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaultRateBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "bankctl"
	}
	return opts
}

// BaseURL returns the normalized base URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Transfer moves funds between two accounts. When useAuth is set a bearer
// token with the "transfer" scope is attached, renewing it if needed.
func (c *Client) Transfer(ctx context.Context, req TransferRequest, useAuth bool) (*TransferResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if useAuth {
		if err := c.ensureToken(ctx, ScopeTransfer); err != nil {
			return nil, err
		}
	}

	var out TransferResponse
	if err := c.doJSON(ctx, "transfer", http.MethodPost, "/transfer", nil, req, useAuth, &out); err != nil {
		return nil, err
	}

	logger := log.WithComponentFromContext(ctx, "client")
	logger.Info().
		Str(log.FieldTransactionID, out.TransactionID).
		Str(log.FieldFromAccount, req.FromAccount).
		Str(log.FieldToAccount, req.ToAccount).
		Float64(log.FieldAmount, req.Amount).
		Str(log.FieldStatus, out.Status).
		Msg("transfer completed")
	return &out, nil
}

// ValidateAccount checks whether an account exists and is active.
func (c *Client) ValidateAccount(ctx context.Context, accountID string) (*AccountValidation, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	var out AccountValidation
	path := "/accounts/validate/" + url.PathEscape(accountID)
	if err := c.doJSON(ctx, "validate", http.MethodGet, path, nil, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance retrieves the balance for an account. With useAuth a bearer token
// with the "enquiry" scope is attached.
func (c *Client) Balance(ctx context.Context, accountID string, useAuth bool) (*BalanceInfo, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	if useAuth {
		if err := c.ensureToken(ctx, ScopeEnquiry); err != nil {
			return nil, err
		}
	}

	var out BalanceInfo
	path := "/accounts/balance/" + url.PathEscape(accountID)
	if err := c.doJSON(ctx, "balance", http.MethodGet, path, nil, nil, useAuth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accounts lists all accounts known to the API.
func (c *Client) Accounts(ctx context.Context, useAuth bool) (*AccountList, error) {
	if useAuth {
		if err := c.ensureToken(ctx, ScopeEnquiry); err != nil {
			return nil, err
		}
	}

	var out AccountList
	if err := c.doJSON(ctx, "accounts", http.MethodGet, "/accounts", nil, nil, useAuth, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History retrieves the transaction history. Authentication with the
// "transfer" scope is always required.
func (c *Client) History(ctx context.Context) (*TransactionHistory, error) {
	if err := c.ensureToken(ctx, ScopeTransfer); err != nil {
		return nil, err
	}

	var out TransactionHistory
	if err := c.doJSON(ctx, "history", http.MethodGet, "/transactions/history", nil, nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON issues one logical API call: marshal body, attach headers, run the
// retry loop behind the circuit breaker, and decode the JSON response into out.
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body any, useAuth bool, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &APIError{Sentinel: ErrUpstreamUnavailable, Operation: op, Err: err}
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return &APIError{Sentinel: ErrBadResponse, Operation: op, Err: err}
		}
	}

	tracer := telemetry.Tracer("bankctl.banking")
	ctx, span := tracer.Start(ctx, "banking."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	status, err := c.execute(ctx, op, method, u, payload, useAuth, out)
	observeRequest(op, status, time.Since(start).Seconds(), err)

	span.SetAttributes(telemetry.HTTPAttributes(method, path, u.Path, status)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// execute runs the attempt loop. It returns the last observed HTTP status
// (0 when the transport never produced a response).
func (c *Client) execute(ctx context.Context, op, method string, u *url.URL, payload []byte, useAuth bool, out any) (int, error) {
	var status int
	err := c.breaker.Execute(func() error {
		var innerErr error
		status, innerErr = c.attemptLoop(ctx, op, method, u, payload, useAuth, out)
		return innerErr
	})
	if errors.Is(err, ErrCircuitOpen) {
		return status, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: op, Err: err}
	}
	return status, err
}

func (c *Client) attemptLoop(ctx context.Context, op, method string, u *url.URL, payload []byte, useAuth bool, out any) (int, error) {
	logger := log.WithComponentFromContext(ctx, "client")
	maxAttempts := c.maxRetries + 1

	var lastStatus int
	var lastErr error
	var lastBody string

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			observeRetry(op)
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return lastStatus, c.wrapTransport(op, err)
			}
		}

		req, err := c.newRequest(ctx, method, u.String(), payload, useAuth)
		if err != nil {
			return lastStatus, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: op, Err: err}
		}

		resp, err := c.httpClient.Do(req)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Debug().
			Str(log.FieldOperation, op).
			Str(log.FieldPath, u.Path).
			Int(log.FieldAttempt, attempt).
			Int(log.FieldStatus, status).
			Msg("api attempt")

		if err == nil && status >= 200 && status < 300 {
			decodeErr := json.NewDecoder(resp.Body).Decode(out)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if decodeErr != nil {
				return status, &APIError{Sentinel: ErrBadResponse, Operation: op, Status: status, Err: decodeErr}
			}
			return status, nil
		}

		if resp != nil {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			lastBody = strings.TrimSpace(string(raw))
			_ = resp.Body.Close()
		}
		lastStatus = status
		lastErr = err

		if !shouldRetry(status, err) || attempt == maxAttempts {
			break
		}

		wait := c.backoffFor(attempt - 1)
		if sleepErr := sleepWithContext(ctx, wait); sleepErr != nil {
			return lastStatus, c.wrapTransport(op, sleepErr)
		}
	}

	if lastErr != nil {
		return lastStatus, c.wrapTransport(op, lastErr)
	}
	return lastStatus, &APIError{
		Sentinel:  sentinelForStatus(lastStatus),
		Operation: op,
		Status:    lastStatus,
		Body:      lastBody,
	}
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, payload []byte, useAuth bool) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rid := log.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	} else {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	if useAuth {
		if token := c.currentToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) wrapTransport(op string, err error) error {
	sentinel := ErrUpstreamUnavailable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		sentinel = ErrTimeout
	}
	return &APIError{Sentinel: sentinel, Operation: op, Err: err}
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrUpstreamError
	default:
		return ErrBadResponse
	}
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		// Context cancellation must not be retried.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	return retryStatus[status]
}

func (c *Client) backoffFor(attempt int) time.Duration {
	wait := c.backoff * time.Duration(1<<attempt)
	if wait > c.maxBackoff {
		wait = c.maxBackoff
	}
	jitter := time.Duration(c.randInt63n(int64(wait/5 + 1)))
	return wait + jitter
}

func (c *Client) randInt63n(n int64) int64 {
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.rnd.Int63n(n)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
