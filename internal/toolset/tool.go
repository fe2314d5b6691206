package toolset

import (
	"context"
	"fmt"
	"strings"
)

type Dtype string

const (
	String Dtype = "string"
	Number Dtype = "number"
)

type Param struct {
	Name        string
	Dtype       Dtype
	Description string
	// Default is used when the action input leaves this parameter out. An
	// empty Default makes the parameter required unless Optional is set.
	Default  string
	Optional bool
}

// Executor receives one positional argument per declared parameter.
type Executor func(ctx context.Context, args []string) (string, error)

type Tool struct {
	Name        string
	Description string
	Params      []Param
	Executor    Executor
}

// Prototype renders the one-line signature shown to the model, for example
//
//	wiki_search(query: string) -> string: Takes 1 parameters, Search for something on Wikipedia
func (t Tool) Prototype() string {
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, fmt.Sprintf("%s: %s", p.Name, p.Dtype))
	}
	return fmt.Sprintf("%s(%s) -> %s: Takes %d parameters, %s",
		t.Name, strings.Join(params, ", "), String, len(t.Params), t.Description)
}

// Bind splits an action input on '|' and lines the pieces up with the
// declared parameters. Extra pieces are folded into the last parameter.
func (t Tool) Bind(input string) ([]string, error) {
	if len(t.Params) == 0 {
		return nil, nil
	}

	parts := strings.SplitN(input, "|", len(t.Params))
	args := make([]string, len(t.Params))
	for i, p := range t.Params {
		if i < len(parts) {
			args[i] = strings.TrimSpace(parts[i])
		}
		if args[i] == "" {
			args[i] = p.Default
		}
		if args[i] == "" && !p.Optional {
			return nil, fmt.Errorf("missing parameter %s", p.Name)
		}
	}
	return args, nil
}
