package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/registry"
)

func TestFormatMissions(t *testing.T) {
	color.NoColor = true

	if got := formatMissions(nil); got != "No missions configured.\n" {
		t.Fatalf("empty list = %q", got)
	}

	out := formatMissions([]config.MissionConfig{
		{
			Task:         "post a\nweather update",
			ToolsetCfg:   []registry.ClassRegistration{{Name: "ClockToolset"}, {Name: "WebToolset"}},
			LLMCfg:       registry.ClassRegistration{Name: "ChatCompletion"},
			AgentBuilder: registry.ClassRegistration{Name: "ReactReasoningAgent"},
			Scheduling:   config.SchedulingConfig{IntervalMinutes: 30},
		},
		{Task: "once", ToolsetCfg: []registry.ClassRegistration{{Name: "ClockToolset"}}},
	})

	for _, want := range []string{
		"#0 post a weather update",
		"schedule: every 30m",
		"toolsets: ClockToolset, WebToolset",
		"#1 once",
		"schedule: on demand",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
