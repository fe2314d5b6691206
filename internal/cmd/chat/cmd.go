package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/tgifai/eternal/internal/consts"
)

const historyFileName = "chat_history"

var (
	cBanner = color.New(color.FgCyan, color.Bold)
	cAgent  = color.New(color.FgGreen, color.Bold)
	cError  = color.New(color.FgRed)
	cDim    = color.New(color.FgHiBlack)
)

var (
	Command = &cli.Command{
		Name:  "chat",
		Usage: "Open an interactive chat session against a running daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Daemon address, e.g. http://localhost:8000",
				Value: "http://localhost:8000",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Bearer token when the daemon requires one",
				Sources: cli.EnvVars("ETERNAL_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the session transcript to this file on exit",
			},
		},
		Action: runChat,
	}
)

func runChat(ctx context.Context, cmd *cli.Command) error {
	c, err := NewClient(cmd.String("host"), cmd.String("api-key"))
	if err != nil {
		return err
	}

	sessionID, err := c.InitChat(ctx)
	if err != nil {
		return fmt.Errorf("init chat: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.CyanString("you> "),
		HistoryFile:     filepath.Join(consts.EternalHomeDir(), historyFileName),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		_ = c.DeinitChat(ctx, sessionID)
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	cBanner.Fprintf(rl.Stdout(), "Connected to %s, session %s\n", cmd.String("host"), sessionID)
	cDim.Fprintln(rl.Stdout(), "Type /exit or press Ctrl+D to leave.")

	repl(ctx, rl, c, sessionID)

	if out := strings.TrimSpace(cmd.String("output")); out != "" {
		if err := dumpTranscript(ctx, c, sessionID, out); err != nil {
			cError.Fprintf(rl.Stderr(), "save transcript: %v\n", err)
		} else {
			cDim.Fprintf(rl.Stdout(), "Transcript saved to %s\n", out)
		}
	}

	if err := c.DeinitChat(ctx, sessionID); err != nil {
		return fmt.Errorf("deinit chat: %w", err)
	}
	return nil
}

func repl(ctx context.Context, rl *readline.Instance, c *Client, sessionID string) {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if err != nil {
			return
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return
		}

		reply, err := c.Chat(ctx, sessionID, line)
		if err != nil {
			cError.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		cAgent.Fprint(rl.Stdout(), "agent> ")
		fmt.Fprintln(rl.Stdout(), reply)
	}
}

func dumpTranscript(ctx context.Context, c *Client, sessionID, path string) error {
	view, err := c.History(ctx, sessionID)
	if err != nil {
		return err
	}
	raw, err := sonic.ConfigStd.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0o644)
}
