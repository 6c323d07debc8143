package request

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Client executes resolved endpoints. It holds only configuration and is safe
// for concurrent use.
type Client struct {
	config Config
}

// Response is the normalized outcome of a 2xx call.
type Response struct {
	Status    int
	URL       string            // Final URL after transport-internal redirects
	Headers   map[string]string // Lower-case keys
	Data      any               // any (JSON), string (text), []byte (binary), io.ReadCloser (StreamBody) or nil
	RateLimit *RateLimitInfo    // Parsed rate limit information (nil if not available)
	Duration  time.Duration     // Time from dispatch to classification
}

// NewClient creates a client with the given configuration.
// Default values are applied to zero-valued config fields. A zero Config has
// no Fetcher: every call must then pass Options.Fetch.
func NewClient(cfg Config) *Client {
	cfg.setDefaults()
	return &Client{config: cfg}
}

// New creates a client whose default Fetcher is a net/http based HTTPFetcher.
func New() *Client {
	return NewClient(Config{Fetch: NewHTTPFetcher(nil)})
}

var defaultClient = New()

// Do executes ep with the package default client.
func Do(ctx context.Context, ep Endpoint, opts Options) (*Response, error) {
	return defaultClient.Do(ctx, ep, opts)
}

// Do executes ep once and returns a *Response for 2xx outcomes or a
// *RequestError for everything else.
//
// ErrFetchNotSet is returned unwrapped, before any hook runs, when neither
// opts.Fetch nor the client default is set.
//
// Hooks are executed in this order:
//  1. BeforeRequest (may mutate the descriptor)
//  2. Fetch
//  3. AfterResponse (on 2xx) OR OnError (on any failure)
//
// ctx is forwarded to the Fetcher unchanged. Do enforces no timeout of its own.
func (c *Client) Do(ctx context.Context, ep Endpoint, opts Options) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	fetch, err := resolveFetcher(opts, c.config.Fetch)
	if err != nil {
		return nil, err
	}

	d := build(ctx, ep, opts, c.config.UserAgent)

	if c.config.BeforeRequest != nil {
		if err := c.config.BeforeRequest(d); err != nil {
			return nil, c.fail(d, newTransportError(d, err), 0)
		}
	}

	c.logRequest(d)
	start := time.Now()

	raw, err := dispatch(ctx, fetch, d)
	if err != nil {
		return nil, c.fail(d, newTransportError(d, err), time.Since(start))
	}

	resp, reqErr := c.classify(d, raw, opts)
	if reqErr != nil {
		return nil, c.fail(d, reqErr, time.Since(start))
	}
	resp.Duration = time.Since(start)

	c.logResponse(d, resp)
	if c.config.AfterResponse != nil {
		c.config.AfterResponse(d, resp)
	}

	return resp, nil
}

// fail logs and reports a normalized error.
func (c *Client) fail(d *Descriptor, err *RequestError, elapsed time.Duration) *RequestError {
	c.config.Logger.Warn().
		Str("request_id", d.ID).
		Str("method", d.Method).
		Str("url", redactURL(d.URL)).
		Int("status", err.Status).
		Dur("duration", elapsed).
		Msg(err.Message)

	if c.config.OnError != nil {
		c.config.OnError(d, err)
	}
	return err
}

// logRequest logs the outgoing request with a redacted Authorization header.
func (c *Client) logRequest(d *Descriptor) {
	if !c.config.Logger.Debug().Enabled() {
		return
	}

	ev := c.config.Logger.Debug().
		Str("request_id", d.ID).
		Str("method", d.Method).
		Str("url", redactURL(d.URL)).
		Str("redirect", string(d.Redirect)).
		Int("body_bytes", len(d.Body))
	if auth := d.Header.Get("Authorization"); auth != "" {
		ev = ev.Str("auth", redactAuthorization(auth))
	}
	ev.Msg("dispatching request")
}

// logResponse logs the response with rate limit information.
func (c *Client) logResponse(d *Descriptor, resp *Response) {
	ev := c.config.Logger.Debug().
		Str("request_id", d.ID).
		Int("status", resp.Status).
		Str("url", redactURL(resp.URL)).
		Dur("duration", resp.Duration)
	if resp.RateLimit != nil {
		ev = ev.Stringer("rate_limit", resp.RateLimit)
	}
	ev.Msg("request completed")
}

// Logger returns the client's logger.
func (c *Client) Logger() *zerolog.Logger {
	return c.config.Logger
}
