package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Endpoint is a resolved route: what the endpoint resolver hands to the core.
type Endpoint struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Descriptor is the transport-ready request for a single call.
// It is built fresh per call by Client.Do and should be treated as read-only
// once it reaches the Fetcher.
type Descriptor struct {
	ID       string
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Redirect Redirect

	ctx context.Context
}

// Context returns the cancellation context of the call. It is never nil.
func (d *Descriptor) Context() context.Context {
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}

// Clone returns a deep copy of the descriptor sharing the same context.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Header = d.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	if d.Body != nil {
		c.Body = append([]byte(nil), d.Body...)
	}
	return &c
}

// build assembles the descriptor for one call. The endpoint and options are
// copied, never mutated.
func build(ctx context.Context, ep Endpoint, opts Options, userAgent string) *Descriptor {
	d := &Descriptor{
		ID:       uuid.NewString(),
		Method:   strings.ToUpper(strings.TrimSpace(ep.Method)),
		URL:      ep.URL,
		Header:   make(http.Header, len(ep.Headers)+2),
		Redirect: opts.Redirect,
		ctx:      ctx,
	}
	if d.Method == "" {
		d.Method = http.MethodGet
	}
	if d.Redirect == "" {
		d.Redirect = RedirectFollow
	}

	for k, v := range ep.Headers {
		d.Header.Set(k, v)
	}
	if ep.Body != nil {
		d.Body = append([]byte(nil), ep.Body...)
		if d.Header.Get("Content-Type") == "" {
			d.Header.Set("Content-Type", "application/json; charset=utf-8")
		}
	}
	if userAgent != "" && d.Header.Get("User-Agent") == "" {
		d.Header.Set("User-Agent", userAgent)
	}

	return d
}
