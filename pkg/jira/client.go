package jira

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tansive/jiraclient/internal/common/logtrace"
	"github.com/tansive/jiraclient/internal/common/uuid"
)

// Callback receives the outcome of one call. Exactly one of err and value is
// meaningful: err is nil on success, value is the zero value on failure.
type Callback[T any] func(err error, value T)

// Result is the outcome of the request pipeline, independent of how it is
// delivered to the caller.
type Result struct {
	Value any
	Err   error
}

// Client executes authenticated requests against one Jira host. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	config    Config
	auth      AuthProvider
	executor  Executor
	logger    zerolog.Logger
	metrics   *Metrics
	timeout   time.Duration
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithExecutor replaces the transport.
func WithExecutor(e Executor) ClientOption {
	return func(c *Client) {
		c.executor = e
	}
}

// WithHTTPClient uses client for the default HTTP transport.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *Client) {
		c.executor = NewHTTPExecutor(client)
	}
}

// WithLogger sets the logger. The default is the global zerolog logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTimeout bounds each call, token acquisition included. Zero, the
// default, means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient validates cfg and returns a Client. It fails with
// ErrConfiguration if the host is not an absolute http(s) URL or if provider
// is nil.
func NewClient(cfg Config, provider AuthProvider, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, ErrConfiguration.Msg("authentication provider is required")
	}
	c := &Client{
		config:   cfg,
		auth:     provider,
		executor: NewHTTPExecutor(&http.Client{}),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.executor == nil {
		return nil, ErrConfiguration.Msg("transport executor is required")
	}
	return c, nil
}

// Host returns the configured host.
func (c *Client) Host() string {
	return c.config.Host
}

// Send executes d and returns the decoded JSON value. On failure it returns
// a nil value and an error matching one of the package sentinels.
func (c *Client) Send(ctx context.Context, d RequestDescriptor) (any, error) {
	res := c.execute(ctx, d)
	return res.Value, res.Err
}

// SendWithCallback executes d and invokes cb exactly once with the outcome
// before returning. Failures are delivered to cb only. cb must not be nil;
// use SendRequest to pick the convention at run time.
func (c *Client) SendWithCallback(ctx context.Context, d RequestDescriptor, cb Callback[any]) {
	MustCallback(cb)
	res := c.execute(ctx, d)
	cb(res.Err, res.Value)
}

// SendRequest selects the delivery convention: with a nil cb it behaves like
// Send; otherwise it behaves like SendWithCallback and returns (nil, nil).
func (c *Client) SendRequest(ctx context.Context, d RequestDescriptor, cb Callback[any]) (any, error) {
	if cb == nil {
		return c.Send(ctx, d)
	}
	c.SendWithCallback(ctx, d, cb)
	return nil, nil
}

// Do executes d and converts the JSON value into T.
func Do[T any](ctx context.Context, c *Client, d RequestDescriptor) (T, error) {
	return decodeResult[T](c.execute(ctx, d))
}

// DoCallback is Do with callback delivery. cb is invoked exactly once and
// must not be nil.
func DoCallback[T any](ctx context.Context, c *Client, d RequestDescriptor, cb Callback[T]) {
	MustCallback(cb)
	v, err := decodeResult[T](c.execute(ctx, d))
	cb(err, v)
}

// MustCallback panics if cb is nil. Callback delivery methods call it before
// doing any work, so a missing callback never swallows an outcome.
func MustCallback[T any](cb Callback[T]) {
	if cb == nil {
		panic("jira: nil callback passed to a callback delivery method")
	}
}

// Fail delivers err through the same convention as a pipeline failure. It
// lets endpoint methods report parameter validation errors consistently.
func Fail[T any](err error, cb Callback[T]) (T, error) {
	var zero T
	if cb != nil {
		cb(err, zero)
		return zero, nil
	}
	return zero, err
}

func (c *Client) execute(ctx context.Context, d RequestDescriptor) Result {
	requestID := uuid.NewRequestID()
	ctx = logtrace.WithRequestID(ctx, requestID)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	method := strings.ToUpper(d.Method)
	logger := c.logger.With().
		Str("request_id", requestID).
		Str("operation", d.operation()).
		Str("method", method).
		Str("path", d.Path).
		Logger()

	if c.metrics != nil {
		c.metrics.RequestsInFlight.Inc()
		defer c.metrics.RequestsInFlight.Dec()
	}

	start := time.Now()
	res := c.run(ctx, d)
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.RecordRequest(d.operation(), method, res.Err, elapsed)
	}
	if res.Err != nil {
		logger.Debug().Err(res.Err).Dur("duration", elapsed).Msg("request failed")
	} else {
		logger.Debug().Dur("duration", elapsed).Msg("request completed")
	}
	return res
}

func (c *Client) run(ctx context.Context, d RequestDescriptor) Result {
	if err := d.validate(); err != nil {
		return Result{Err: err}
	}

	token, err := c.auth.Token(ctx, c.config.Authentication)
	if err != nil {
		return Result{Err: ErrAuthentication.MsgErr("unable to obtain authentication token", err)}
	}
	if token.Value == "" {
		return Result{Err: ErrAuthentication.Msg("authentication provider returned an empty token")}
	}

	out, err := c.buildOutbound(ctx, d, token)
	if err != nil {
		return Result{Err: err}
	}

	body, err := c.executor.Execute(ctx, out)
	if err != nil {
		if !errors.Is(err, ErrTransport) {
			err = ErrTransport.MsgErr(err.Error(), err)
		}
		return Result{Err: err}
	}

	value, err := parseBody(body)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Value: value}
}

// parseBody decodes the response as arbitrary JSON. An empty body yields a
// nil value.
func parseBody(body string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}
	var v any
	if err := json.UnmarshalFromString(body, &v); err != nil {
		return nil, ErrParse.MsgErr("response body is not valid JSON", err)
	}
	return v, nil
}

func decodeResult[T any](res Result) (T, error) {
	var out T
	if res.Err != nil {
		return out, res.Err
	}
	if res.Value == nil {
		return out, nil
	}
	if v, ok := res.Value.(T); ok {
		return v, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, ErrParse.MsgErr("unable to build result decoder", err)
	}
	if err := dec.Decode(res.Value); err != nil {
		var zero T
		return zero, ErrParse.MsgErr("response does not match the expected type", err)
	}
	return out, nil
}
