package request

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeffersonwarrior/reqcore/internal/version"
)

// Redirect is the redirect policy forwarded to the transport.
type Redirect string

const (
	RedirectFollow Redirect = "follow"
	RedirectManual Redirect = "manual"
	RedirectError  Redirect = "error"
)

// ParseRedirect validates a redirect policy name. An empty string means follow.
func ParseRedirect(s string) (Redirect, error) {
	switch r := Redirect(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RedirectFollow, nil
	case RedirectFollow, RedirectManual, RedirectError:
		return r, nil
	default:
		return "", fmt.Errorf("invalid redirect policy %q (want follow, manual or error)", s)
	}
}

// Config configures a Client. It is read once by NewClient and never mutated
// afterwards.
type Config struct {
	// Fetch is the default transport for every call. Options.Fetch overrides
	// it per call. When both are nil, calls fail with ErrFetchNotSet.
	Fetch Fetcher

	// UserAgent is set on requests that don't carry one
	// (default: "reqcore/<version>").
	UserAgent string

	// Decoders are consulted before the built-in content-type rules.
	Decoders []DecoderRule

	// Hooks for request/response interception
	BeforeRequest BeforeRequestHook // Called once before dispatch, may mutate the descriptor
	AfterResponse AfterResponseHook // Called after a 2xx outcome
	OnError       OnErrorHook       // Called after any normalized failure

	// Logger for debug output (default: disabled).
	// Authorization headers and secret query values are redacted before logging.
	Logger *zerolog.Logger
}

// setDefaults fills in default values for zero-valued fields.
func (c *Config) setDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "reqcore/" + version.Version()
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	decoders := make([]DecoderRule, 0, len(c.Decoders)+len(defaultDecoders))
	decoders = append(decoders, c.Decoders...)
	c.Decoders = append(decoders, defaultDecoders...)
}

// Options are the per-call transport options. The cancellation signal is the
// context passed to Client.Do.
type Options struct {
	// Fetch overrides the client's default transport for this call.
	Fetch Fetcher

	// Redirect is copied onto the descriptor unchanged (default: follow).
	Redirect Redirect

	// StreamBody leaves a successful response body unread. Response.Data is
	// then the io.ReadCloser and the caller must close it.
	StreamBody bool
}
