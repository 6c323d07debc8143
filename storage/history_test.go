package storage

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffersonwarrior/reqcore/request"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, path := range []string{"/a", "/b", "/c"} {
		require.NoError(t, h.Record(ctx, Entry{
			RequestID: "req",
			Method:    "GET",
			URL:       "https://api.github.com" + path,
			Status:    200,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://api.github.com/c", entries[0].URL)
	assert.Equal(t, "https://api.github.com/b", entries[1].URL)
	assert.NotEmpty(t, entries[0].ID)
	assert.True(t, entries[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestRecentEmpty(t *testing.T) {
	h := newTestHistory(t)

	entries, err := h.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordError(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.Record(ctx, Entry{Method: "GET", URL: "http://localhost:1", Status: 500, Error: "connect: connection refused"}))

	entries, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "connect: connection refused", entries[0].Error)
	assert.False(t, entries[0].OK())
}

func TestPrune(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, h.Record(ctx, Entry{Method: "GET", URL: "/old", Status: 200, CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, h.Record(ctx, Entry{Method: "GET", URL: "/new", Status: 200, CreatedAt: now}))

	n, err := h.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	entries, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/new", entries[0].URL)
}

func TestEntryFromResponseRedacts(t *testing.T) {
	d := &request.Descriptor{
		ID:     "id-1",
		Method: "GET",
		URL:    "https://api.github.com/user?access_token=xyz",
		Header: http.Header{"Authorization": []string{"token secret"}},
	}
	resp := &request.Response{Status: 200, Duration: 1500 * time.Millisecond}

	e := EntryFromResponse(d, resp)

	assert.Equal(t, "id-1", e.RequestID)
	assert.Equal(t, "https://api.github.com/user?access_token=[REDACTED]", e.URL)
	assert.Equal(t, int64(1500), e.DurationMS)
	assert.True(t, e.OK())
}

func TestEntryFromError(t *testing.T) {
	d := &request.Descriptor{ID: "id-2", Method: "POST", URL: "https://api.github.com/repos", Header: http.Header{}}
	reqErr := &request.RequestError{Status: 404, Message: "Not Found"}

	e := EntryFromError(d, reqErr)

	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, 404, e.Status)
	assert.Equal(t, "Not Found", e.Error)
	assert.False(t, e.OK())
}

func TestWriteMarkdown(t *testing.T) {
	entries := []Entry{
		{Method: "GET", URL: "https://api.github.com/a", Status: 200, DurationMS: 42, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Method: "GET", URL: "https://api.github.com/b", Status: 500, Error: "bad|pipe", CreatedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, entries))

	out := buf.String()
	assert.Contains(t, out, "# Request History")
	assert.Contains(t, out, "| 2026-01-02 03:04:05 | GET | https://api.github.com/a | 200 | 42ms |  |")
	assert.Contains(t, out, `bad\|pipe`)
	assert.Contains(t, out, "Total: 2 calls, 1 failed")
}
