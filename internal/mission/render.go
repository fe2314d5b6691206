package mission

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/eternal/internal/toolset"
)

const DefaultSystemReminder = "Please follow the instructions carefully"

const promptTemplate = `
You have access to the following toolset:

{tools}

Your reply to user's message must be a single JSON object with exact three keys described as follows.
thought: your own thought about the next step, reflecting your unique persona.
action: must be one of {toolnames}.
action_input: provide the necessary parameters for the chosen action, separating multiple parameters with the | character.

OR with exact two keys as follows.
thought: your final thought to conclude.
final_answer: your conclusion.

{base_system_prompt}

Again, only return a single JSON!
`

var (
	assistantKeys = []string{KeyThought, KeyAction, KeyActionInput, KeyFinalAnswer}
	userKeys      = []string{KeyTask, KeyObservation}
)

func RenderSystemPrompt(m *Mission, tools *toolset.Composer) string {
	return strings.NewReplacer(
		"{tools}", tools.RenderInstruction(),
		"{toolnames}", strings.Join(tools.Names(), ", "),
		"{base_system_prompt}", m.SystemPrompt,
	).Replace(promptTemplate)
}

// RenderConversation turns the scratchpad into chat messages: the system
// prompt, then for every turn the assistant's fields (if any) followed by a
// user message with the task or observation and the reminder.
func RenderConversation(m *Mission, tools *toolset.Composer) []*schema.Message {
	reminder := m.SystemReminder
	if reminder == "" {
		reminder = DefaultSystemReminder
	}

	msgs := make([]*schema.Message, 0, 1+2*len(m.Scratchpad))
	msgs = append(msgs, schema.SystemMessage(RenderSystemPrompt(m, tools)))

	for _, turn := range m.Scratchpad {
		if turn.HasAny(assistantKeys...) {
			msgs = append(msgs, schema.AssistantMessage(encodeFields(turn, assistantKeys), nil))
		}
		user := encodeFields(turn, userKeys, [2]string{"system_reminder", reminder})
		msgs = append(msgs, schema.UserMessage(user))
	}
	return msgs
}

// encodeFields writes a JSON object with keys in the given order, skipping
// keys the turn does not have. extra pairs are appended verbatim.
func encodeFields(turn Turn, keys []string, extra ...[2]string) string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	write := func(k, v string) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(quote(k))
		sb.WriteString(": ")
		sb.WriteString(quote(v))
	}
	for _, k := range keys {
		if v, ok := turn[k]; ok {
			write(k, v)
		}
	}
	for _, kv := range extra {
		write(kv[0], kv[1])
	}
	sb.WriteByte('}')
	return sb.String()
}

func quote(s string) string {
	out, err := sonic.MarshalString(s)
	if err != nil {
		return `""`
	}
	return out
}
