package session

import (
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/tgifai/eternal/internal/registry"
)

// Session is one interactive conversation. messages[0] is always the system
// turn holding the persona.
type Session struct {
	id        string
	llmCfg    registry.ClassRegistration
	createdAt time.Time

	messages      []*schema.Message
	lastExecution time.Time

	// mu serialises Execute and guards messages and lastExecution.
	mu sync.Mutex
}

func newSession(systemPrompt string, llmCfg registry.ClassRegistration, now time.Time) *Session {
	return &Session{
		id:            uuid.NewString(),
		llmCfg:        llmCfg.Clone(),
		createdAt:     now,
		messages:      []*schema.Message{schema.SystemMessage(systemPrompt)},
		lastExecution: now,
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// View is a detached copy of a session, safe to serialise.
type View struct {
	ID            string                     `json:"id"`
	Messages      []Message                  `json:"messages"`
	LLMCfg        registry.ClassRegistration `json:"llm_cfg"`
	CreatedAt     time.Time                  `json:"created_at"`
	LastExecution time.Time                  `json:"last_execution"`
}

func (s *Session) view() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		msgs = append(msgs, Message{Role: string(m.Role), Content: m.Content})
	}
	return View{
		ID:            s.id,
		Messages:      msgs,
		LLMCfg:        s.llmCfg.Clone(),
		CreatedAt:     s.createdAt,
		LastExecution: s.lastExecution,
	}
}

// window returns the system turn plus the last n other messages.
func window(msgs []*schema.Message, n int) []*schema.Message {
	if n <= 0 || len(msgs) <= n+1 {
		out := make([]*schema.Message, len(msgs))
		copy(out, msgs)
		return out
	}
	out := make([]*schema.Message, 0, n+1)
	out = append(out, msgs[0])
	return append(out, msgs[len(msgs)-n:]...)
}
