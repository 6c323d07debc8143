package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"
)

// ErrFetchNotSet is returned when neither the call options nor the client
// provide a Fetcher. It is returned before any I/O and is never wrapped in a
// *RequestError.
var ErrFetchNotSet = errors.New("fetch is not set. Please pass a fetch implementation as request.Options{Fetch: ...} or request.Config{Fetch: ...}")

// Fetcher performs the network call for a descriptor. Implementations must
// honour d.Redirect and the cancellation context. A returned error means no
// HTTP response was received.
type Fetcher interface {
	Fetch(ctx context.Context, d *Descriptor) (*http.Response, error)
}

// FetchFunc adapts an ordinary function to the Fetcher interface.
type FetchFunc func(ctx context.Context, d *Descriptor) (*http.Response, error)

// Fetch calls f(ctx, d).
func (f FetchFunc) Fetch(ctx context.Context, d *Descriptor) (*http.Response, error) {
	return f(ctx, d)
}

// TransportError is a failure that happened before any HTTP response arrived.
// Cause is either a string or an error and carries the underlying reason.
type TransportError struct {
	Msg   string
	Cause any
}

func (e *TransportError) Error() string {
	switch c := e.Cause.(type) {
	case string:
		if c != "" {
			return e.Msg + ": " + c
		}
	case error:
		return e.Msg + ": " + c.Error()
	}
	return e.Msg
}

// Unwrap returns Cause when it is an error.
func (e *TransportError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// errRedirectNotAllowed is the cause reported under RedirectError.
var errRedirectNotAllowed = errors.New("redirect mode is set to error")

// HTTPFetcher is the default Fetcher built on net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher wraps client. A nil client gets a pooled transport and no
// client-level timeout; callers bound calls through the context.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPFetcher{client: client}
}

// Fetch sends d with net/http. The redirect policy is applied on a shallow
// copy of the client so concurrent calls don't observe each other's policy.
func (f *HTTPFetcher) Fetch(ctx context.Context, d *Descriptor) (*http.Response, error) {
	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL, body)
	if err != nil {
		return nil, &TransportError{Msg: "invalid request", Cause: err}
	}
	req.Header = d.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	client := *f.client
	switch d.Redirect {
	case RedirectFollow, "":
	case RedirectManual:
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	case RedirectError:
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return errRedirectNotAllowed
		}
	default:
		return nil, &TransportError{Msg: "invalid request", Cause: fmt.Sprintf("unknown redirect policy %q", d.Redirect)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{Msg: "fetch failed", Cause: err}
	}
	return resp, nil
}

// resolveFetcher picks the per-call Fetcher over the client default.
func resolveFetcher(opts Options, def Fetcher) (Fetcher, error) {
	if !isNilFetcher(opts.Fetch) {
		return opts.Fetch, nil
	}
	if !isNilFetcher(def) {
		return def, nil
	}
	return nil, ErrFetchNotSet
}

// isNilFetcher reports whether f is nil or an interface holding a nil value of
// any nillable kind.
func isNilFetcher(f Fetcher) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// dispatch sends d exactly once. A nil response without an error is reported
// as a transport failure.
func dispatch(ctx context.Context, f Fetcher, d *Descriptor) (*http.Response, error) {
	resp, err := f.Fetch(ctx, d)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	if resp == nil {
		return nil, &TransportError{Msg: "fetch failed", Cause: fmt.Sprintf("transport returned no response for %s %s", d.Method, redactURL(d.URL))}
	}
	return resp, nil
}
