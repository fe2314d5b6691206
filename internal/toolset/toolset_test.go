package toolset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoTool(name string, params ...Param) Tool {
	return Tool{
		Name:        name,
		Description: "echo the arguments",
		Params:      params,
		Executor: func(_ context.Context, args []string) (string, error) {
			return strings.Join(args, ","), nil
		},
	}
}

func TestPrototype(t *testing.T) {
	tool := echoTool("get_weather",
		Param{Name: "city", Dtype: String},
		Param{Name: "days", Dtype: Number, Default: "1"},
	)
	assert.Equal(t, "get_weather(city: string, days: number) -> string: Takes 2 parameters, echo the arguments", tool.Prototype())

	assert.Equal(t, "noop() -> string: Takes 0 parameters, echo the arguments", echoTool("noop").Prototype())
}

func TestComposerExecute(t *testing.T) {
	weather := &Static{
		ToolsetName:    "Weather",
		ToolsetPurpose: "to check the weather",
		ToolList: []Tool{
			echoTool("get_weather", Param{Name: "city", Dtype: String}, Param{Name: "unit", Dtype: String, Default: "C"}),
			{
				Name:        "broken",
				Description: "always fails",
				Executor: func(context.Context, []string) (string, error) {
					return "", errors.New("backend down")
				},
			},
		},
	}
	c := NewComposer(weather, nil)
	ctx := context.Background()

	cases := []struct {
		action, input, want string
	}{
		{"get_weather", "Paris", "Paris,C"},
		{"get_weather", "Paris | F", "Paris,F"},
		{"get_weather", "Paris|F|extra", "Paris,F|extra"},
		{"get_weather", "", "Error: missing parameter city"},
		{"broken", "", "Error: backend down"},
		{"fly", "moon", "Tool fly not found"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Execute(ctx, tc.action, tc.input), "%s(%s)", tc.action, tc.input)
	}
}

func TestComposerNamesAndInstruction(t *testing.T) {
	a := &Static{ToolsetName: "A", ToolsetPurpose: "first", ToolList: []Tool{echoTool("one"), echoTool("two")}}
	b := &Static{ToolsetName: "B", ToolsetPurpose: "second", ToolList: []Tool{echoTool("two"), echoTool("three")}}
	c := NewComposer(a, b)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"one", "two", "three"}, c.Names())
	assert.Equal(t, "A, first:\n"+
		"- one() -> string: Takes 0 parameters, echo the arguments\n"+
		"- two() -> string: Takes 0 parameters, echo the arguments\n\n"+
		"B, second:\n"+
		"- two() -> string: Takes 0 parameters, echo the arguments\n"+
		"- three() -> string: Takes 0 parameters, echo the arguments", c.RenderInstruction())
}
