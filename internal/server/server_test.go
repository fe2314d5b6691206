package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/eternal/internal/mission"
	"github.com/tgifai/eternal/internal/provider"
	"github.com/tgifai/eternal/internal/session"
)

type fakeSessions struct {
	views map[string]session.View
	reply string
	err   error
	last  string
}

func (f *fakeSessions) Create() string {
	id := fmt.Sprintf("s-%d", len(f.views)+1)
	f.views[id] = session.View{ID: id, Messages: []session.Message{{Role: "system", Content: "persona"}}}
	return id
}

func (f *fakeSessions) Get(id string) (session.View, error) {
	v, ok := f.views[id]
	if !ok {
		return session.View{}, fmt.Errorf("session %s %w", id, session.ErrSessionNotFound)
	}
	return v, nil
}

func (f *fakeSessions) Destroy(id string) error {
	if _, ok := f.views[id]; !ok {
		return fmt.Errorf("session %s %w", id, session.ErrSessionNotFound)
	}
	delete(f.views, id)
	return nil
}

func (f *fakeSessions) Execute(_ context.Context, id, message string) (string, error) {
	if _, err := f.Get(id); err != nil {
		return "", err
	}
	f.last = message
	return f.reply, f.err
}

type fakeMissions struct {
	templates []mission.Template
	recent    []*mission.Mission
	queued    int
}

func (f *fakeMissions) Trigger(index int) (*mission.Mission, error) {
	if index < 0 || index >= len(f.templates) {
		return nil, fmt.Errorf("mission index %d out of range", index)
	}
	f.queued++
	return f.templates[index].New(), nil
}

func (f *fakeMissions) Len() int                   { return f.queued }
func (f *fakeMissions) Recent() []*mission.Mission { return f.recent }

type fakeProvider struct{}

func (fakeProvider) ID() string                       { return "backend" }
func (fakeProvider) Type() provider.Type              { return provider.OpenAI }
func (fakeProvider) IsAvailable(context.Context) bool { return true }
func (fakeProvider) Close() error                     { return nil }
func (fakeProvider) ListModels(context.Context) ([]provider.ModelInfo, error) {
	return []provider.ModelInfo{{ID: "gpt-4o-mini", Name: "gpt-4o-mini", Provider: provider.OpenAI}}, nil
}
func (fakeProvider) Generate(context.Context, string, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, errors.New("not used")
}

type fakeProviders struct{}

func (fakeProviders) Get(id string) (provider.Provider, error) {
	if id != "backend" {
		return nil, fmt.Errorf("%w: %s", provider.ErrProviderNotFound, id)
	}
	return fakeProvider{}, nil
}

func newTestServer(t *testing.T, apiKey string) (*Server, *fakeSessions, *fakeMissions) {
	t.Helper()
	sessions := &fakeSessions{views: map[string]session.View{}, reply: "hello there"}
	missions := &fakeMissions{templates: []mission.Template{{Task: "say hi"}}}
	s := New(Options{Bind: "127.0.0.1:0", RequestTimeout: time.Second, APIKey: apiKey}, sessions, missions, fakeProviders{})
	return s, sessions, missions
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, sonic.Unmarshal(raw, &out))
	return out
}

func jsonBody(s string) *ut.Body {
	return &ut.Body{Body: bytes.NewBufferString(s), Len: len(s)}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "secret")
	w := ut.PerformRequest(s.h.Engine, consts.MethodGet, "/health", nil)
	resp := w.Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Body())
}

func TestChatLifecycle(t *testing.T) {
	s, sessions, _ := newTestServer(t, "")

	w := ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/init-chat", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	id, _ := decode(t, w.Result().Body())["session_id"].(string)
	require.NotEmpty(t, id)

	w = ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/chat/"+id+"?message=hi", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "hello there", decode(t, w.Result().Body())["response"])
	assert.Equal(t, "hi", sessions.last)

	w = ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/chat/"+id, jsonBody(`{"message":"from body"}`),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "from body", sessions.last)

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/chat/"+id+"/history", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	history, ok := decode(t, w.Result().Body())["history"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, id, history["id"])

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/deinit-chat/"+id, nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.Empty(t, decode(t, w.Result().Body()))

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/chat/"+id+"/history", nil)
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
	assert.Contains(t, decode(t, w.Result().Body())["error"], "not found")
}

func TestChatErrors(t *testing.T) {
	s, sessions, _ := newTestServer(t, "")
	id := sessions.Create()

	cases := []struct {
		name string
		path string
		body *ut.Body
		want string
	}{
		{name: "unknown session", path: "/api/v1/chat/nope?message=hi", want: "not found"},
		{name: "missing message", path: "/api/v1/chat/" + id, want: errMessageRequired.Error()},
		{name: "bad body", path: "/api/v1/chat/" + id, body: jsonBody("{"), want: "invalid request body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ut.PerformRequest(s.h.Engine, consts.MethodPost, tc.path, tc.body)
			assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
			assert.Contains(t, decode(t, w.Result().Body())["error"], tc.want)
		})
	}

	sessions.err = errors.New("Failed to get a response from the model: boom")
	w := ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/chat/"+id+"?message=hi", nil)
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
	assert.Contains(t, decode(t, w.Result().Body())["error"], "boom")

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/deinit-chat/nope", nil)
	assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode())
}

func TestMissionsRoutes(t *testing.T) {
	s, _, missions := newTestServer(t, "")
	done := mission.Template{Task: "weather"}.New()
	done.State = mission.StateDone
	done.Steps = 3
	done.Scratchpad = []mission.Turn{{mission.KeyThought: "t", mission.KeyFinalAnswer: "sunny"}}
	missions.recent = []*mission.Mission{done}

	w := ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/missions/0/trigger", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.Contains(t, decode(t, w.Result().Body())["mission_id"], "fun-")

	for _, path := range []string{"/api/v1/missions/7/trigger", "/api/v1/missions/x/trigger"} {
		w = ut.PerformRequest(s.h.Engine, consts.MethodPost, path, nil)
		assert.Equal(t, consts.StatusBadRequest, w.Result().StatusCode(), path)
	}

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/missions", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	out := decode(t, w.Result().Body())
	assert.EqualValues(t, 1, out["queue_length"])
	recent, ok := out["recent"].([]any)
	require.True(t, ok)
	require.Len(t, recent, 1)
	first := recent[0].(map[string]any)
	assert.Equal(t, "done", first["state"])
	assert.Equal(t, "sunny", first["final_answer"])
}

func TestProviderModels(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	w := ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/providers/backend/models", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	out := decode(t, w.Result().Body())
	assert.Equal(t, "backend", out["provider"])
	assert.Len(t, out["models"], 1)

	w = ut.PerformRequest(s.h.Engine, consts.MethodGet, "/api/v1/providers/missing/models", nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())
}

func TestAPIKey(t *testing.T) {
	s, _, _ := newTestServer(t, "secret")

	w := ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/init-chat", nil)
	assert.Equal(t, consts.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(s.h.Engine, consts.MethodPost, "/api/v1/init-chat", nil,
		ut.Header{Key: "Authorization", Value: "Bearer secret"})
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.NotEmpty(t, w.Result().Header.Get("X-Log-Id"))
}
