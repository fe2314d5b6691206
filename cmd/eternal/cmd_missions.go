package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/tgifai/eternal/internal/config"
	"github.com/tgifai/eternal/internal/consts"
	"github.com/tgifai/eternal/internal/pkg/utils"
)

var missionsHwd = &MissionsRunner{}

type MissionsRunner struct{}

func (r *MissionsRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "missions",
		Usage: "Inspect configured missions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List mission templates and their schedules",
				Flags:  []cli.Flag{configFlag()},
				Action: r.list,
			},
		},
	}
}

func (r *MissionsRunner) list(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadFile(consts.ResolveConfigPath(cmd.String("config")))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Print(formatMissions(cfg.Missions))
	return nil
}

func formatMissions(missions []config.MissionConfig) string {
	if len(missions) == 0 {
		return "No missions configured.\n"
	}

	var sb strings.Builder
	for i, m := range missions {
		schedule := "on demand"
		if m.Scheduling.IntervalMinutes > 0 {
			schedule = fmt.Sprintf("every %dm", m.Scheduling.IntervalMinutes)
		}
		toolsets := make([]string, 0, len(m.ToolsetCfg))
		for _, ts := range m.ToolsetCfg {
			toolsets = append(toolsets, ts.Name)
		}

		fmt.Fprintf(&sb, "%s %s\n", color.CyanString("#%d", i), utils.Truncate80(utils.OneLine(m.Task)))
		fmt.Fprintf(&sb, "    schedule: %s\n", schedule)
		fmt.Fprintf(&sb, "    agent: %s, llm: %s\n", m.AgentBuilder.Name, m.LLMCfg.Name)
		fmt.Fprintf(&sb, "    toolsets: %s\n", strings.Join(toolsets, ", "))
	}
	return sb.String()
}
