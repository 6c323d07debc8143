package request

import (
	"strings"
)

// BeforeRequestHook is called once per call, after the descriptor is built and
// before it is dispatched.
// If the hook returns an error, the call is aborted and the error is
// normalized into a *RequestError with status 500.
//
// Use cases:
//   - Add authentication headers
//   - Add custom headers
//   - Rewrite the URL (e.g. for a proxy)
//
// The descriptor belongs to this call only and can be modified in place.
type BeforeRequestHook func(d *Descriptor) error

// AfterResponseHook is called after a call produced a 2xx Response.
// The hook cannot change the outcome.
//
// Use cases:
//   - Log response details
//   - Record call history
//   - Track rate limit headers
type AfterResponseHook func(d *Descriptor, resp *Response)

// OnErrorHook is called after a call was normalized into a *RequestError.
// It is not called for ErrFetchNotSet.
//
// Example:
//
//	OnError: func(d *request.Descriptor, err *request.RequestError) {
//	    log.Printf("%s %s failed: %d %s", d.Method, d.URL, err.Status, err.Message)
//	}
type OnErrorHook func(d *Descriptor, err *RequestError)

// TokenAuth returns a BeforeRequestHook that authenticates with a static
// token. JSON web tokens are sent with the "bearer" scheme, anything else with
// the "token" scheme. An Authorization header that is already present wins.
func TokenAuth(token string) BeforeRequestHook {
	token = strings.TrimSpace(token)
	scheme := "token"
	if strings.Count(token, ".") == 2 {
		scheme = "bearer"
	}

	return func(d *Descriptor) error {
		if token == "" || d.Header.Get("Authorization") != "" {
			return nil
		}
		d.Header.Set("Authorization", scheme+" "+token)
		return nil
	}
}

// ChainBeforeRequest runs hooks in order and stops at the first error.
func ChainBeforeRequest(hooks ...BeforeRequestHook) BeforeRequestHook {
	return func(d *Descriptor) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(d); err != nil {
				return err
			}
		}
		return nil
	}
}
