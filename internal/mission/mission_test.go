package mission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tgifai/eternal/internal/registry"
)

func TestTemplateFactory(t *testing.T) {
	tpl := Template{
		Task:       "do it",
		ToolsetCfg: []registry.ClassRegistration{{Name: "A", InitParams: map[string]any{"k": 1}}},
	}
	f := tpl.Factory()
	a, b := f(), f()

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, strings.HasPrefix(a.ID, "fun-"))
	assert.Len(t, a.ID, len("fun-")+32)
	assert.Equal(t, a.Task, b.Task)
	assert.Equal(t, a.ToolsetCfg, b.ToolsetCfg)
	assert.Equal(t, StateNew, a.State)

	a.ToolsetCfg[0].InitParams["k"] = 2
	assert.Equal(t, 1, b.ToolsetCfg[0].InitParams["k"])
	assert.Equal(t, 1, tpl.ToolsetCfg[0].InitParams["k"])
}

func TestWithErrorCopies(t *testing.T) {
	m := Template{Task: "t"}.New()
	m.State = StateRunning
	m.InferReceipt = "r1"
	m.Scratchpad = []Turn{{KeyTask: "t"}}

	e := m.WithError("boom")
	assert.Equal(t, StateError, e.State)
	assert.Equal(t, "boom", e.SystemMessage)
	assert.Empty(t, e.InferReceipt)
	assert.Equal(t, m.ID, e.ID)

	assert.Equal(t, StateRunning, m.State)
	assert.Equal(t, "r1", m.InferReceipt)

	e.Scratchpad[0][KeyThought] = "x"
	assert.NotContains(t, m.Scratchpad[0], KeyThought)
}

func TestParseReply(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Turn
	}{
		{"action", `{"thought":"t","action":"a","action_input":"i"}`, Turn{KeyThought: "t", KeyAction: "a", KeyActionInput: "i"}},
		{"final wins", `{"thought":"t","final_answer":"f","action":"a","action_input":"i"}`, Turn{KeyThought: "t", KeyFinalAnswer: "f"}},
		{"missing input", `{"thought":"t","action":"a"}`, Turn{KeyThought: "t", KeyAction: "a"}},
		{"fenced", "```json\n{\"thought\":\"t\"}\n```", Turn{KeyThought: "t"}},
		{"non string", `{"thought":"t","final_answer":42}`, Turn{KeyThought: "t", KeyFinalAnswer: "42"}},
		{"null ignored", `{"thought":null,"final_answer":"f"}`, Turn{KeyFinalAnswer: "f"}},
		{"unknown keys", `{"answer":"x"}`, Turn{}},
		{"not json", `hello`, Turn{}},
		{"broken", `{"thought": }`, Turn{}},
		{"array", `[{"thought":"x"}]`, Turn{}},
		{"fenced array", "```json\n [{\"thought\":\"x\"}]\n```", Turn{}},
		{"prose before object", `Sure! {"thought":"x"}`, Turn{KeyThought: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseReply(tc.raw))
		})
	}
}
