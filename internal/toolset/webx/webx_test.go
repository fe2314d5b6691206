package webx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/eternal/internal/toolset"
)

func TestWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k-1", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "10", r.URL.Query().Get("count"))
		_, _ = io.WriteString(w, `{"web":{"results":[{"title":"Go","url":"https://go.dev","description":"The Go language"}]}}`)
	}))
	defer srv.Close()

	ts, err := New(map[string]any{"brave_api_key": "k-1", "brave_endpoint": srv.URL})
	require.NoError(t, err)
	c := toolset.NewComposer(ts)

	out := c.Execute(context.Background(), "web_search", "golang | 50")
	assert.Equal(t, "Results for: golang\n\n1. Go\n   https://go.dev\n   The Go language", out)
}

func TestWebSearchWithoutKey(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	ts, err := New(nil)
	require.NoError(t, err)

	out := toolset.NewComposer(ts).Execute(context.Background(), "web_search", "anything")
	assert.Contains(t, out, "BRAVE_API_KEY is not set")
}

func TestWebFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<!doctype html><html><head><title>Weather</title></head><body>`+
			`<article><h1>Weather</h1><p>Paris is sunny today with a light breeze from the west.</p>`+
			`<p>Temperatures will reach twenty degrees in the afternoon.</p></article></body></html>`)
	}))
	defer srv.Close()

	ts, err := New(map[string]any{"allow_private": true})
	require.NoError(t, err)

	out := toolset.NewComposer(ts).Execute(context.Background(), "web_fetch", srv.URL)
	assert.Contains(t, out, "Paris is sunny today")
	assert.NotContains(t, out, "<p>")
}

func TestWebFetchRejectsPrivate(t *testing.T) {
	ts, err := New(nil)
	require.NoError(t, err)
	c := toolset.NewComposer(ts)

	assert.Equal(t, "Error: "+errPrivateAddress.Error(), c.Execute(context.Background(), "web_fetch", "http://127.0.0.1:8080/"))
	assert.Equal(t, "Error: only http and https URLs are allowed", c.Execute(context.Background(), "web_fetch", "file:///etc/passwd"))
}
