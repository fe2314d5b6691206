package toolset

import (
	"context"
	"fmt"
	"strings"

	"github.com/tgifai/eternal/internal/pkg/logs"
	"github.com/tgifai/eternal/internal/pkg/utils"
)

// Toolset is a named group of tools, built from a registry entry.
type Toolset interface {
	Name() string
	Purpose() string
	Tools() []Tool
}

// Composer merges several toolsets into the catalogue a mission can act on.
// When two toolsets declare the same tool name the first one wins.
type Composer struct {
	toolsets []Toolset
	tools    map[string]Tool
	names    []string
}

func NewComposer(toolsets ...Toolset) *Composer {
	c := &Composer{
		toolsets: make([]Toolset, 0, len(toolsets)),
		tools:    make(map[string]Tool, 8),
	}
	for _, ts := range toolsets {
		if ts == nil {
			continue
		}
		c.toolsets = append(c.toolsets, ts)
		for _, t := range ts.Tools() {
			if _, exists := c.tools[t.Name]; exists {
				logs.Warn("[toolset] duplicate tool %s in %s ignored", t.Name, ts.Name())
				continue
			}
			c.tools[t.Name] = t
			c.names = append(c.names, t.Name)
		}
	}
	return c
}

func (c *Composer) Len() int {
	return len(c.toolsets)
}

// Names returns the allowed action names in declaration order.
func (c *Composer) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// RenderInstruction lists every toolset with its purpose and tool prototypes.
func (c *Composer) RenderInstruction() string {
	var sb strings.Builder
	for i, ts := range c.toolsets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%s, %s:", ts.Name(), ts.Purpose())
		for _, t := range ts.Tools() {
			sb.WriteString("\n- ")
			sb.WriteString(t.Prototype())
		}
	}
	return sb.String()
}

// Execute runs action synchronously and always returns an observation.
// Failures are reported to the model as text rather than as errors.
func (c *Composer) Execute(ctx context.Context, action, input string) string {
	t, ok := c.tools[strings.TrimSpace(action)]
	if !ok {
		return fmt.Sprintf("Tool %s not found", action)
	}

	args, err := t.Bind(input)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	out, err := t.Executor(ctx, args)
	if err != nil {
		logs.CtxWarn(ctx, "[toolset] %s(%s) failed: %v", t.Name, utils.Truncate80(input), err)
		return fmt.Sprintf("Error: %v", err)
	}
	logs.CtxDebug(ctx, "[toolset] %s(%s) -> %s", t.Name, utils.Truncate80(input), utils.Truncate80(out))
	return out
}
