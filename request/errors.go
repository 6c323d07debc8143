package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusTransportFailure is the status reported when a call never produced an
// HTTP response.
const StatusTransportFailure = http.StatusInternalServerError

// RequestError is the single failure shape returned by Client.Do.
type RequestError struct {
	// Status is the HTTP status, or StatusTransportFailure when no response
	// arrived.
	Status int

	// Message is a human-readable summary. Error() returns it unchanged.
	Message string

	// Request is a redacted copy of the descriptor that was attempted.
	Request *Descriptor

	// Response is nil when the failure happened before a response arrived.
	Response *ErrorResponse

	// Err is the underlying cause, if any.
	Err error
}

// ErrorResponse is the diagnostic part of a failed response.
type ErrorResponse struct {
	Status    int
	URL       string
	Headers   map[string]string
	Data      any
	RateLimit *RateLimitInfo
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// newTransportError normalizes a failure that happened before any response.
func newTransportError(d *Descriptor, err error) *RequestError {
	return &RequestError{
		Status:  StatusTransportFailure,
		Message: causeMessage(err),
		Request: redactDescriptor(d),
		Err:     err,
	}
}

// newHTTPError normalizes a non-2xx response whose body was already decoded.
func newHTTPError(d *Descriptor, resp *ErrorResponse) *RequestError {
	msg := errorMessage(resp.Status, resp.Data)
	if resp.Status == http.StatusNotModified {
		msg = "Not modified"
	}
	return &RequestError{
		Status:   resp.Status,
		Message:  msg,
		Request:  redactDescriptor(d),
		Response: resp,
	}
}

// newBodyError normalizes a response whose body could not be read or decoded.
func newBodyError(d *Descriptor, resp *ErrorResponse, err error) *RequestError {
	return &RequestError{
		Status:   resp.Status,
		Message:  err.Error(),
		Request:  redactDescriptor(d),
		Response: resp,
		Err:      err,
	}
}

// causeMessage walks the cause chain of err and returns the deepest non-empty
// message. A string cause ends the walk. Wrapper messages such as
// "fetch failed" are only used when nothing below them has a message.
func causeMessage(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	var next any = err
	for depth := 0; next != nil && depth < 32; depth++ {
		switch v := next.(type) {
		case string:
			if v != "" {
				msg = v
			}
			next = nil
		case *TransportError:
			if v.Msg != "" {
				msg = v.Msg
			}
			next = v.Cause
		case error:
			if m := v.Error(); m != "" {
				msg = m
			}
			next = unwrapOnce(v)
		default:
			next = nil
		}
	}
	return msg
}

// unwrapOnce returns the next error in the chain, or nil. For joined errors
// the first one is followed.
func unwrapOnce(err error) any {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			if e != nil {
				return e
			}
		}
		return nil
	}
	if e := errors.Unwrap(err); e != nil {
		return e
	}
	return nil
}

// errorMessage derives a message from a decoded failure body, falling back to
// the status text.
func errorMessage(status int, data any) string {
	switch v := data.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case map[string]any:
		if m, ok := v["message"]; ok {
			msg := fmt.Sprint(m)
			if list, ok := v["errors"].([]any); ok && len(list) > 0 {
				details := make([]string, 0, len(list))
				for _, item := range list {
					b, err := json.Marshal(item)
					if err != nil {
						continue
					}
					details = append(details, string(b))
				}
				msg += ": " + strings.Join(details, ", ")
			}
			if doc, ok := v["documentation_url"].(string); ok && doc != "" {
				msg += " - " + doc
			}
			return msg
		}
		if b, err := json.Marshal(v); err == nil {
			return "Unknown error: " + string(b)
		}
	case nil, []byte:
	default:
		if b, err := json.Marshal(v); err == nil {
			return "Unknown error: " + string(b)
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
