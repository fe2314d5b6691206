package mission

import (
	"context"
	"errors"
	"fmt"

	"github.com/tgifai/eternal/internal/inference"
	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/pkg/utils"
	"github.com/tgifai/eternal/internal/registry"
	"github.com/tgifai/eternal/internal/toolset"
)

const (
	ReactAgentName = "ReactReasoningAgent"

	DefaultScratchpadLimit = 30

	notFound = "Not found!"
)

// Stepper advances a mission by one step and returns the next value. The
// input is never modified.
type Stepper interface {
	Step(ctx context.Context, m *Mission) *Mission
}

// Machine is the ReAct state machine. Each step resolves the mission's llm
// and toolsets from the catalogs, then either submits, polls, or consumes a
// reply.
type Machine struct {
	llms     *registry.Catalog[inference.LLM]
	toolsets *registry.Catalog[toolset.Toolset]
	limit    int
}

var _ Stepper = (*Machine)(nil)

func NewMachine(llms *registry.Catalog[inference.LLM], toolsets *registry.Catalog[toolset.Toolset]) *Machine {
	return &Machine{llms: llms, toolsets: toolsets, limit: DefaultScratchpadLimit}
}

func (sm *Machine) Step(ctx context.Context, in *Mission) *Mission {
	m := in.Clone()
	m.Steps++

	llm, err := sm.llms.Build(m.LLMCfg)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return m.WithError(fmt.Sprintf("LLM %s not found", m.LLMCfg.Name))
		}
		return m.WithError(err.Error())
	}

	tools := sm.buildToolsets(ctx, m.ToolsetCfg)
	if tools == nil {
		return m.WithError("No toolset found")
	}

	switch m.State {
	case StateNew:
		return sm.start(ctx, m, llm, tools)
	case StateRunning:
		return sm.advance(ctx, m, llm, tools)
	default:
		return m.WithError(fmt.Sprintf("Invalid state %s", m.State))
	}
}

// buildToolsets skips entries that cannot be built and returns nil when none
// are left.
func (sm *Machine) buildToolsets(ctx context.Context, cfgs []registry.ClassRegistration) *toolset.Composer {
	built := make([]toolset.Toolset, 0, len(cfgs))
	for _, cfg := range cfgs {
		ts, err := sm.toolsets.Build(cfg)
		if err != nil {
			logs.CtxWarn(ctx, "[mission] toolset skipped: %v", err)
			continue
		}
		built = append(built, ts)
	}
	if len(built) == 0 {
		return nil
	}
	return toolset.NewComposer(built...)
}

func (sm *Machine) start(ctx context.Context, m *Mission, llm inference.LLM, tools *toolset.Composer) *Mission {
	m.State = StateRunning
	m.Scratchpad = []Turn{{KeyTask: utils.OneLine(m.Task)}}
	m.InferReceipt = llm.Submit(ctx, RenderConversation(m, tools))

	logs.CtxInfo(ctx, "[mission] %s started, task: %s, receipt: %s", m.ID, utils.Truncate80(m.Task), m.InferReceipt)
	return m
}

func (sm *Machine) advance(ctx context.Context, m *Mission, llm inference.LLM, tools *toolset.Composer) *Mission {
	if len(m.Scratchpad) == 0 {
		return m.WithError(fmt.Sprintf("Invalid state %s", m.State))
	}

	res, err := llm.Get(m.InferReceipt)
	if err != nil {
		return m.WithError(err.Error())
	}
	switch res.State {
	case inference.StateExecuting:
		return m
	case inference.StateError:
		return m.WithError(res.Error)
	}

	pad := ParseReply(res.Result)
	if len(pad) == 0 {
		return m.WithError(fmt.Sprintf("Invalid response from the agent message; Last message: %s", res.Result))
	}

	if thought, ok := pad[KeyThought]; ok {
		last := m.lastTurn()
		if last.Has(KeyThought) && !last.Has(KeyAction, KeyActionInput, KeyObservation) {
			for _, k := range []string{KeyAction, KeyActionInput, KeyObservation} {
				if !last.Has(k) {
					last[k] = notFound
				}
			}
			return m.WithError("Thought found without action/action input/observation")
		}
		m.Scratchpad = append(m.Scratchpad, Turn{KeyThought: thought})
		logs.CtxInfo(ctx, "[mission] %s thought: %s", m.ID, utils.Truncate80(thought))
	}

	if action, ok := pad[KeyAction]; ok {
		last := m.lastTurn()
		// A turn that already holds an observation is closed.
		if last.Has(KeyObservation) {
			return m.WithError("No thought found")
		}
		input, ok := pad[KeyActionInput]
		if !ok {
			last[KeyAction] = action
			last[KeyActionInput] = notFound
			return m.WithError("Action input not found")
		}
		if !last.Has(KeyThought) {
			return m.WithError("No thought found")
		}

		observation := tools.Execute(ctx, action, input)
		last[KeyAction] = action
		last[KeyActionInput] = input
		last[KeyObservation] = observation
		logs.CtxInfo(ctx, "[mission] %s action: %s(%s) -> %s", m.ID, action, utils.Truncate80(input), utils.Truncate80(observation))
	}

	if answer, ok := pad[KeyFinalAnswer]; ok {
		if m.lastTurn().HasAny(KeyAction, KeyActionInput, KeyObservation) {
			m.Scratchpad = append(m.Scratchpad, Turn{})
		}
		m.lastTurn()[KeyFinalAnswer] = answer
		m.State = StateDone
		m.SystemMessage = "Final answer found"
		m.InferReceipt = ""
		logs.CtxInfo(ctx, "[mission] %s final answer: %s", m.ID, utils.Truncate80(answer))
		return m
	}

	if len(m.Scratchpad) > sm.limit {
		return m.WithError("Scratchpad length exceeded")
	}

	m.InferReceipt = llm.Submit(ctx, RenderConversation(m, tools))
	return m
}
