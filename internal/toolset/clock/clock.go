package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/tgifai/eternal/internal/toolset"
)

const Name = "ClockToolset"

type Toolset struct {
	now func() time.Time
}

var _ toolset.Toolset = (*Toolset)(nil)

func New(map[string]any) (toolset.Toolset, error) {
	return &Toolset{now: time.Now}, nil
}

func (t *Toolset) Name() string    { return "Clock" }
func (t *Toolset) Purpose() string { return "to know the current date and time" }

func (t *Toolset) Tools() []toolset.Tool {
	return []toolset.Tool{
		{
			Name:        "current_time",
			Description: "Get the current date and time in an IANA timezone such as Europe/Paris",
			Params: []toolset.Param{
				{Name: "timezone", Dtype: toolset.String, Description: "IANA timezone name", Default: "UTC"},
			},
			Executor: func(_ context.Context, args []string) (string, error) {
				loc, err := time.LoadLocation(args[0])
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", args[0])
				}
				return t.now().In(loc).Format("Monday, 2006-01-02 15:04:05 MST"), nil
			},
		},
	}
}
