package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/tgifai/eternal/internal/cmd/chat"
	"github.com/tgifai/eternal/internal/consts"
	"github.com/tgifai/eternal/internal/pkg/logs"
)

func main() {
	loadDotEnv()

	cmd := &cli.Command{
		Name:  "eternal",
		Usage: "Autonomous ReAct missions and chat sessions on top of any LLM backend",
		Commands: []*cli.Command{
			daemonHwd.cmd(),
			missionsHwd.cmd(),
			chat.Command,
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

// loadDotEnv reads ./.env and then ~/.eternal/.env. Variables already set in
// the environment are never overridden.
func loadDotEnv() {
	for _, path := range []string{
		consts.DotEnvFileName,
		filepath.Join(consts.EternalHomeDir(), consts.DotEnvFileName),
	} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logs.Warn("load %s error: %v", path, err)
		}
	}
}
