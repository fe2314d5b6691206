package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/inference"
	"github.com/tgifai/eternal/internal/pkg/logs"
	metrics "github.com/tgifai/eternal/internal/pkg/prometheus"
	"github.com/tgifai/eternal/internal/registry"
)

const (
	DefaultTimeout = 3 * time.Hour
	DefaultWindow  = 30
)

var ErrSessionNotFound = errors.New("not found")

func sessionNotFound(id string) error {
	return fmt.Errorf("session %s %w", id, ErrSessionNotFound)
}

type Options struct {
	// Timeout is the idle time after which Sweep drops a session.
	Timeout time.Duration
	// Window is how many non-system messages are sent with each request.
	Window int
}

// Manager is the registry of live chat sessions.
type Manager struct {
	llms         *registry.Catalog[inference.LLM]
	llmCfg       registry.ClassRegistration
	systemPrompt string
	timeout      time.Duration
	window       int
	now          func() time.Time

	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewManager(llms *registry.Catalog[inference.LLM], llmCfg registry.ClassRegistration, systemPrompt string, opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	return &Manager{
		llms:         llms,
		llmCfg:       llmCfg.Clone(),
		systemPrompt: systemPrompt,
		timeout:      opts.Timeout,
		window:       opts.Window,
		now:          time.Now,
		sessions:     make(map[string]*Session, 16),
	}
}

func (m *Manager) Create() string {
	sess := newSession(m.systemPrompt, m.llmCfg, m.now())

	m.mu.Lock()
	m.sessions[sess.id] = sess
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ChatSessions.Set(float64(n))
	logs.Info("[session] created %s", sess.id)
	return sess.id
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return sess, nil
}

// Get returns a snapshot of the session history.
func (m *Manager) Get(id string) (View, error) {
	sess, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	return sess.view(), nil
}

func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return sessionNotFound(id)
	}
	metrics.ChatSessions.Set(float64(n))
	logs.Info("[session] destroyed %s", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Execute appends message, asks the session's llm for a reply and records
// it. On failure the user turn is rolled back so history stays paired.
func (m *Manager) Execute(ctx context.Context, id, message string) (string, error) {
	sess, err := m.get(id)
	if err != nil {
		return "", err
	}

	llm, err := m.llms.Build(sess.llmCfg)
	if err != nil {
		return "", err
	}

	ctx = logs.WithField(ctx, "session", id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.messages = append(sess.messages, schema.UserMessage(message))
	reply, err := llm.Complete(ctx, window(sess.messages, m.window))
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply from the model")
	}
	if err != nil {
		sess.messages = sess.messages[:len(sess.messages)-1]
		metrics.ChatCompletions.WithLabelValues("error").Inc()
		logs.CtxWarn(ctx, "[session] %s completion failed: %v", id, err)
		return "", err
	}

	sess.messages = append(sess.messages, schema.AssistantMessage(reply, nil))
	sess.lastExecution = m.now()
	metrics.ChatCompletions.WithLabelValues("ok").Inc()
	return reply, nil
}

// Sweep drops sessions idle for longer than the timeout. Sessions busy in
// Execute are left for the next sweep.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	removed := 0
	for id, sess := range m.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		expired := now.Sub(sess.lastExecution) > m.timeout
		sess.mu.Unlock()

		if expired {
			delete(m.sessions, id)
			removed++
			logs.CtxInfo(ctx, "[session] removing idle chat session %s", id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.ChatSessions.Set(float64(n))
	return removed
}
