package mission

import (
	"strings"

	"github.com/bytedance/sonic"
)

// ParseReply extracts the recognised fields from a model reply. The reply is
// expected to be a JSON object; text around the outermost braces, such as a
// markdown code fence, is ignored. Anything unparsable, including a JSON
// array, yields an empty Turn.
//
// When final_answer is present action and action_input are not extracted.
func ParseReply(raw string) Turn {
	if strings.HasPrefix(stripFence(raw), "[") {
		return Turn{}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Turn{}
	}

	var obj map[string]any
	if err := sonic.UnmarshalString(raw[start:end+1], &obj); err != nil {
		return Turn{}
	}

	pad := Turn{}
	take := func(key string) bool {
		v, ok := obj[key]
		if !ok || v == nil {
			return false
		}
		pad[key] = stringify(v)
		return true
	}

	take(KeyThought)
	if take(KeyFinalAnswer) {
		return pad
	}
	take(KeyAction)
	take(KeyActionInput)
	return pad
}

// stripFence drops an opening markdown fence and its language tag.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	body, ok := strings.CutPrefix(text, "```")
	if !ok {
		return text
	}
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		return strings.TrimSpace(body[i+1:])
	}
	return ""
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := sonic.MarshalString(v)
	if err != nil {
		return ""
	}
	return out
}
