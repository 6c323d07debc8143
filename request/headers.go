package request

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RateLimitInfo contains parsed rate limit information from response headers.
type RateLimitInfo struct {
	Limit      int           // Maximum requests allowed in the current window
	Remaining  int           // Remaining requests in the current window
	Used       int           // Requests used in the current window
	Reset      time.Time     // When the current window resets
	Resource   string        // Rate limit bucket (e.g. "core", "search")
	RetryAfter time.Duration // Time to wait before retrying (from Retry-After header)
}

// String returns a human-readable representation of rate limit info.
func (r *RateLimitInfo) String() string {
	var parts []string

	if r.Limit > 0 || r.Remaining > 0 {
		parts = append(parts, "requests="+strconv.Itoa(r.Remaining)+"/"+strconv.Itoa(r.Limit))
	}

	if r.Used > 0 {
		parts = append(parts, "used="+strconv.Itoa(r.Used))
	}

	if r.Resource != "" {
		parts = append(parts, "resource="+r.Resource)
	}

	if !r.Reset.IsZero() {
		parts = append(parts, "reset="+r.Reset.UTC().Format(time.RFC3339))
	}

	if r.RetryAfter > 0 {
		parts = append(parts, "retry_after="+r.RetryAfter.String())
	}

	if len(parts) == 0 {
		return "RateLimit{}"
	}

	return "RateLimit{" + strings.Join(parts, ", ") + "}"
}

// ParseRateLimitHeaders extracts rate limit information from HTTP response headers.
// Returns nil if no rate limit headers are found.
//
// Supported headers:
//   - X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Used
//   - X-RateLimit-Reset (unix seconds)
//   - X-RateLimit-Resource
//   - Retry-After (seconds or HTTP date)
//
// Invalid values are silently skipped.
func ParseRateLimitHeaders(headers http.Header) *RateLimitInfo {
	info := &RateLimitInfo{}
	foundAny := false

	intHeader := func(name string, dst *int) {
		if val := headers.Get(name); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
				foundAny = true
			}
		}
	}

	intHeader("X-RateLimit-Limit", &info.Limit)
	intHeader("X-RateLimit-Remaining", &info.Remaining)
	intHeader("X-RateLimit-Used", &info.Used)

	if val := headers.Get("X-RateLimit-Reset"); val != "" {
		if sec, err := strconv.ParseInt(val, 10, 64); err == nil {
			info.Reset = time.Unix(sec, 0)
			foundAny = true
		}
	}

	if val := headers.Get("X-RateLimit-Resource"); val != "" {
		info.Resource = val
		foundAny = true
	}

	// Retry-After header (standard)
	if val := headers.Get("Retry-After"); val != "" {
		// Try parsing as seconds first
		if seconds, err := strconv.Atoi(val); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
			foundAny = true
		} else if t, err := http.ParseTime(val); err == nil {
			info.RetryAfter = time.Until(t)
			if info.RetryAfter < 0 {
				info.RetryAfter = 0
			}
			foundAny = true
		}
	}

	if !foundAny {
		return nil
	}

	return info
}

// foldHeaders flattens response headers into a map with lower-case keys.
// Repeated values are joined with ", ".
func foldHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vals := range h {
		out[strings.ToLower(k)] = strings.Join(vals, ", ")
	}
	return out
}

const redacted = "[REDACTED]"

// secretQueryParams are query parameters whose values never leave the call
// unredacted.
var secretQueryParams = []string{"client_secret", "access_token"}

// redactAuthorization keeps the scheme and masks the credentials:
// "token ghp_abc" -> "token [REDACTED]".
func redactAuthorization(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if i := strings.IndexByte(v, ' '); i > 0 {
		return v[:i] + " " + redacted
	}
	return redacted
}

// redactURL masks secret query values. URLs that don't parse are returned
// unchanged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	q := u.Query()
	changed := false
	for _, name := range secretQueryParams {
		if _, ok := q[name]; ok {
			q.Set(name, redacted)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = strings.ReplaceAll(q.Encode(), url.QueryEscape(redacted), redacted)
	return u.String()
}

// redactDescriptor returns a copy of d that is safe to log or attach to errors.
func redactDescriptor(d *Descriptor) *Descriptor {
	c := d.Clone()
	c.URL = redactURL(c.URL)
	if v := c.Header.Get("Authorization"); v != "" {
		c.Header.Set("Authorization", redactAuthorization(v))
	}
	return c
}

// Redacted returns a copy of d with credentials masked, suitable for logs and
// persisted history.
func (d *Descriptor) Redacted() *Descriptor {
	return redactDescriptor(d)
}
