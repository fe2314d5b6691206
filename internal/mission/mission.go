package mission

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgifai/eternal/internal/registry"
)

type State string

const (
	StateNew     State = "new"
	StateRunning State = "running"
	StateDone    State = "done"
	StateError   State = "error"
)

func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// Turn keys.
const (
	KeyTask        = "task"
	KeyThought     = "thought"
	KeyAction      = "action"
	KeyActionInput = "action_input"
	KeyObservation = "observation"
	KeyFinalAnswer = "final_answer"
)

// Turn is one scratchpad entry. It holds a subset of the Key* fields.
type Turn map[string]string

func (t Turn) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := t[k]; !ok {
			return false
		}
	}
	return true
}

func (t Turn) HasAny(keys ...string) bool {
	for _, k := range keys {
		if _, ok := t[k]; ok {
			return true
		}
	}
	return false
}

func (t Turn) Clone() Turn {
	out := make(Turn, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Mission is one reasoning run. Only the state machine changes it, and it
// does so on a copy.
type Mission struct {
	ID              string                       `json:"id"`
	SystemPrompt    string                       `json:"system_prompt"`
	Task            string                       `json:"task"`
	SystemReminder  string                       `json:"system_reminder"`
	IntervalMinutes int                          `json:"interval_minutes"`
	ToolsetCfg      []registry.ClassRegistration `json:"toolset_cfg"`
	LLMCfg          registry.ClassRegistration   `json:"llm_cfg"`
	AgentCfg        registry.ClassRegistration   `json:"agent_cfg"`

	InferReceipt  string    `json:"infer_receipt,omitempty"`
	State         State     `json:"state"`
	Scratchpad    []Turn    `json:"scratchpad"`
	SystemMessage string    `json:"system_message"`
	CreatedAt     time.Time `json:"created_at"`
	Steps         int       `json:"steps"`
}

func newID() string {
	return "fun-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (m *Mission) Clone() *Mission {
	out := *m
	out.ToolsetCfg = cloneRegistrations(m.ToolsetCfg)
	out.LLMCfg = m.LLMCfg.Clone()
	out.AgentCfg = m.AgentCfg.Clone()
	if m.Scratchpad != nil {
		out.Scratchpad = make([]Turn, len(m.Scratchpad))
		for i, t := range m.Scratchpad {
			out.Scratchpad[i] = t.Clone()
		}
	}
	return &out
}

// WithError returns a copy in the error state. The receiver is untouched.
func (m *Mission) WithError(msg string) *Mission {
	out := m.Clone()
	out.State = StateError
	out.SystemMessage = msg
	out.InferReceipt = ""
	return out
}

func (m *Mission) lastTurn() Turn {
	return m.Scratchpad[len(m.Scratchpad)-1]
}

func cloneRegistrations(in []registry.ClassRegistration) []registry.ClassRegistration {
	if in == nil {
		return nil
	}
	out := make([]registry.ClassRegistration, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Factory builds a fresh mission on every call.
type Factory func() *Mission

// Template is the immutable part of a configured mission. Each New call
// yields a distinct id with identical content.
type Template struct {
	SystemPrompt    string
	Task            string
	SystemReminder  string
	IntervalMinutes int
	ToolsetCfg      []registry.ClassRegistration
	LLMCfg          registry.ClassRegistration
	AgentCfg        registry.ClassRegistration
}

func (t Template) New() *Mission {
	return &Mission{
		ID:              newID(),
		SystemPrompt:    t.SystemPrompt,
		Task:            t.Task,
		SystemReminder:  t.SystemReminder,
		IntervalMinutes: t.IntervalMinutes,
		ToolsetCfg:      cloneRegistrations(t.ToolsetCfg),
		LLMCfg:          t.LLMCfg.Clone(),
		AgentCfg:        t.AgentCfg.Clone(),
		State:           StateNew,
		Scratchpad:      []Turn{},
		CreatedAt:       time.Now(),
	}
}

func (t Template) Factory() Factory {
	return t.New
}
