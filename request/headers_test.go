package request

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRateLimitHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    *RateLimitInfo
		wantNil bool
	}{
		{
			name: "all fields present",
			headers: http.Header{
				"X-Ratelimit-Limit":     []string{"5000"},
				"X-Ratelimit-Remaining": []string{"4987"},
				"X-Ratelimit-Used":      []string{"13"},
				"X-Ratelimit-Reset":     []string{"1700000000"},
				"X-Ratelimit-Resource":  []string{"core"},
			},
			want: &RateLimitInfo{
				Limit:     5000,
				Remaining: 4987,
				Used:      13,
				Reset:     time.Unix(1700000000, 0),
				Resource:  "core",
			},
		},
		{
			name: "partial fields",
			headers: http.Header{
				"X-Ratelimit-Limit":     []string{"60"},
				"X-Ratelimit-Remaining": []string{"0"},
			},
			want: &RateLimitInfo{
				Limit:     60,
				Remaining: 0,
			},
		},
		{
			name:    "No rate limit headers",
			headers: http.Header{},
			wantNil: true,
		},
		{
			name: "Invalid numeric values - should skip invalid fields",
			headers: http.Header{
				"X-Ratelimit-Limit":     []string{"not-a-number"},
				"X-Ratelimit-Remaining": []string{"9999"},
				"X-Ratelimit-Reset":     []string{"soon"},
			},
			want: &RateLimitInfo{
				Remaining: 9999,
			},
		},
		{
			name: "Only invalid values",
			headers: http.Header{
				"X-Ratelimit-Limit": []string{"lots"},
			},
			wantNil: true,
		},
		{
			name: "Case insensitive header names",
			headers: func() http.Header {
				h := http.Header{}
				h.Set("x-ratelimit-limit", "10000")
				h.Set("X-RATELIMIT-REMAINING", "9999")
				return h
			}(),
			want: &RateLimitInfo{
				Limit:     10000,
				Remaining: 9999,
			},
		},
		{
			name: "Retry-After header - seconds format",
			headers: http.Header{
				"Retry-After": []string{"120"},
			},
			want: &RateLimitInfo{
				RetryAfter: 120 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRateLimitHeaders(tt.headers)

			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRateLimitHeaders() = %+v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("ParseRateLimitHeaders() = nil, want %+v", tt.want)
			}

			if got.Limit != tt.want.Limit {
				t.Errorf("Limit = %d, want %d", got.Limit, tt.want.Limit)
			}
			if got.Remaining != tt.want.Remaining {
				t.Errorf("Remaining = %d, want %d", got.Remaining, tt.want.Remaining)
			}
			if got.Used != tt.want.Used {
				t.Errorf("Used = %d, want %d", got.Used, tt.want.Used)
			}
			if !got.Reset.Equal(tt.want.Reset) {
				t.Errorf("Reset = %v, want %v", got.Reset, tt.want.Reset)
			}
			if got.Resource != tt.want.Resource {
				t.Errorf("Resource = %q, want %q", got.Resource, tt.want.Resource)
			}
			if got.RetryAfter != tt.want.RetryAfter {
				t.Errorf("RetryAfter = %v, want %v", got.RetryAfter, tt.want.RetryAfter)
			}
		})
	}
}

func TestParseRateLimitHeadersRetryAfterHTTPDate(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", time.Now().Add(2*time.Minute).UTC().Format(http.TimeFormat))

	got := ParseRateLimitHeaders(h)
	if got == nil {
		t.Fatal("ParseRateLimitHeaders() = nil")
	}
	if got.RetryAfter <= 0 || got.RetryAfter > 2*time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 2m]", got.RetryAfter)
	}
}

func TestParseRateLimitHeadersRetryAfterInPast(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))

	got := ParseRateLimitHeaders(h)
	if got == nil {
		t.Fatal("ParseRateLimitHeaders() = nil")
	}
	if got.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0", got.RetryAfter)
	}
}

func TestRateLimitInfoString(t *testing.T) {
	info := &RateLimitInfo{
		Limit:      5000,
		Remaining:  4999,
		Used:       1,
		Resource:   "core",
		Reset:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RetryAfter: 30 * time.Second,
	}

	want := "RateLimit{requests=4999/5000, used=1, resource=core, reset=2026-01-02T03:04:05Z, retry_after=30s}"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRateLimitInfoStringEmpty(t *testing.T) {
	info := &RateLimitInfo{}
	if got := info.String(); got != "RateLimit{}" {
		t.Errorf("String() = %q, want %q", got, "RateLimit{}")
	}
}

func TestFoldHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	got := foldHeaders(h)

	if got["content-type"] != "application/json" {
		t.Errorf("content-type = %q", got["content-type"])
	}
	if got["set-cookie"] != "a=1, b=2" {
		t.Errorf("set-cookie = %q, want %q", got["set-cookie"], "a=1, b=2")
	}
	if _, ok := got["Content-Type"]; ok {
		t.Error("keys should be lower-cased")
	}
}

func TestRedactAuthorization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"token ghp_1234567890", "token [REDACTED]"},
		{"bearer a.b.c", "bearer [REDACTED]"},
		{"Basic dXNlcjpwYXNz", "Basic [REDACTED]"},
		{"rawsecret", "[REDACTED]"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := redactAuthorization(tt.in); got != tt.want {
			t.Errorf("redactAuthorization(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "client secret",
			in:   "https://api.github.com/applications?client_id=1&client_secret=abc",
			want: "https://api.github.com/applications?client_id=1&client_secret=[REDACTED]",
		},
		{
			name: "access token",
			in:   "https://api.github.com/user?access_token=xyz",
			want: "https://api.github.com/user?access_token=[REDACTED]",
		},
		{
			name: "no secrets",
			in:   "https://api.github.com/user?per_page=10",
			want: "https://api.github.com/user?per_page=10",
		},
		{
			name: "no query",
			in:   "https://api.github.com/user",
			want: "https://api.github.com/user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactURL(tt.in); got != tt.want {
				t.Errorf("redactURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactDescriptorLeavesInputUnchanged(t *testing.T) {
	d := &Descriptor{
		Method: "GET",
		URL:    "https://api.github.com/user?access_token=xyz",
		Header: http.Header{"Authorization": []string{"token secret"}},
	}

	r := redactDescriptor(d)

	if r.Header.Get("Authorization") != "token [REDACTED]" {
		t.Errorf("redacted Authorization = %q", r.Header.Get("Authorization"))
	}
	if d.Header.Get("Authorization") != "token secret" {
		t.Errorf("input Authorization changed to %q", d.Header.Get("Authorization"))
	}
	if d.URL != "https://api.github.com/user?access_token=xyz" {
		t.Errorf("input URL changed to %q", d.URL)
	}
}
