package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/tgifai/eternal/internal/toolset"
)

func newComposer(t *testing.T, params map[string]any) *toolset.Composer {
	t.Helper()
	ts, err := New(params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return toolset.NewComposer(ts)
}

func TestHTTPRequestGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("configured header not sent: %q", r.Header.Get("X-Api-Key"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newComposer(t, map[string]any{
		"allow_private": true,
		"headers":       map[string]any{"X-Api-Key": "k"},
	})
	out := c.Execute(context.Background(), "http_request", "get | "+srv.URL)

	var res requestResult
	if err := sonic.UnmarshalString(out, &res); err != nil {
		t.Fatalf("observation is not a result: %q", out)
	}
	if res.Status != http.StatusOK || res.Body != `{"ok":true}` {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestHTTPRequestPOSTKeepsPipesInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	c := newComposer(t, map[string]any{"allow_private": true})
	out := c.Execute(context.Background(), "http_request", "POST|"+srv.URL+`|{"q":"a|b"}`)

	var res requestResult
	if err := sonic.UnmarshalString(out, &res); err != nil {
		t.Fatalf("observation is not a result: %q", out)
	}
	if res.Status != http.StatusCreated || res.Body != `{"q":"a|b"}` {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestHTTPRequestRejects(t *testing.T) {
	c := newComposer(t, nil)
	cases := map[string]string{
		"method":  "TRACE|https://example.com",
		"scheme":  "GET|ftp://example.com/file",
		"private": "GET|http://127.0.0.1:8080/admin",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			out := c.Execute(context.Background(), "http_request", input)
			if !strings.HasPrefix(out, "Error: ") {
				t.Fatalf("expected an error observation, got %q", out)
			}
		})
	}
}
