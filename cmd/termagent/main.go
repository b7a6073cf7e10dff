// Command termagent runs a shell behind the input dispatch engine:
// keystrokes pass through to the shell until the prefix character opens
// an agent command capture. Agent execution itself is an external
// collaborator; parsed commands are logged here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcrowe/termagent/internal/command"
	"github.com/lcrowe/termagent/internal/config"
	"github.com/lcrowe/termagent/internal/input"
	"github.com/lcrowe/termagent/internal/input/action"
	"github.com/lcrowe/termagent/internal/input/keymap"
	"github.com/lcrowe/termagent/internal/terminal"
	"github.com/lcrowe/termagent/internal/terminal/backend"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("termagent: ")

	configPath := flag.String("config", defaultConfigPath(), "configuration file")
	shell := flag.String("shell", "", "shell to run (default $SHELL)")
	flag.Parse()

	if err := run(*configPath, *shell); err != nil {
		log.Fatal(err)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "termagent.toml"
	}
	return filepath.Join(dir, "termagent", "config.toml")
}

func run(configPath, shell string) error {
	provider := config.NewProvider(configPath)
	defer provider.Close()

	cfg, err := provider.Load()
	if err != nil {
		return err
	}
	shellMode, err := input.ParseShellMode(cfg.Input.ShellMode)
	if err != nil {
		return err
	}

	parser := command.NewParser(command.Options{
		Prefix:       cfg.PrefixRune(),
		ContextLines: cfg.Context.Lines,
		IncludeEnv:   cfg.Context.IncludeEnv,
	})
	engine := input.New(keymap.NewRegistry(), parser, input.Config{
		ShellMode:     shellMode,
		PrefixTimeout: cfg.PrefixTimeout(),
	})
	defer engine.Close()

	if err := engine.LoadKeybindingsFromConfig(cfg); err != nil {
		return err
	}
	if err := provider.Subscribe(func(c *config.Config) {
		if mode, err := input.ParseShellMode(c.Input.ShellMode); err == nil {
			engine.SetShellMode(mode)
		}
		if err := engine.ApplyKeybindings(c.Keybindings); err != nil {
			log.Printf("config reload: %v", err)
		}
	}); err != nil {
		log.Printf("live reload unavailable: %v", err)
	}

	screen, err := backend.NewScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()

	cols, rows := screen.Size()
	session, err := terminal.StartShell(shell, uint16(cols), uint16(rows))
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shell output pump. Rendering is out of scope; output is consumed
	// to keep the agent-context scrollback fresh.
	go func() {
		defer cancel()
		buf := make([]byte, 4096)
		for {
			_, lines, err := session.ReadOutput(buf)
			if len(lines) > 0 {
				parser.UpdateScrollback(lines)
			}
			if err != nil {
				return
			}
		}
	}()

	helpReg := command.NewRegistry()
	go func() {
		for {
			act, err := engine.ReceiveAction(ctx)
			if err != nil {
				return
			}
			if err := applyAction(session, helpReg, act); err != nil {
				log.Printf("action %s: %v", act, err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		switch ev := screen.Poll(); ev.Kind {
		case backend.EventKey:
			engine.ProcessKeyEvent(ev.Key)
		case backend.EventResize:
			if err := session.Resize(uint16(ev.Cols), uint16(ev.Rows)); err != nil {
				log.Printf("resize: %v", err)
			}
		case backend.EventClosed:
			return nil
		}
	}
}

// Control bytes the shell's line editor understands.
var cursorBytes = map[action.Direction]string{
	action.DirLeft:        "\x02",
	action.DirRight:       "\x06",
	action.DirUp:          "\x10",
	action.DirDown:        "\x0e",
	action.DirLineStart:   "\x01",
	action.DirLineEnd:     "\x05",
	action.DirWordBack:    "\x1bb",
	action.DirWordForward: "\x1bf",
}

func applyAction(session *terminal.Session, helpReg *command.Registry, act action.Action) error {
	switch act.Kind {
	case action.KindSendToTerminal:
		_, err := session.Write([]byte(act.Text))
		return err
	case action.KindExecuteCommand:
		return executeCommand(helpReg, act.Command)
	case action.KindInterrupt:
		_, err := session.Write([]byte{0x03})
		return err
	case action.KindSuspend:
		_, err := session.Write([]byte{0x1a})
		return err
	case action.KindEOF:
		_, err := session.Write([]byte{0x04})
		return err
	case action.KindClearScreen:
		_, err := session.Write([]byte{0x0c})
		return err
	case action.KindHistoryPrev:
		_, err := session.Write([]byte{0x10})
		return err
	case action.KindHistoryNext:
		_, err := session.Write([]byte{0x0e})
		return err
	case action.KindCompletion:
		_, err := session.Write([]byte{'\t'})
		return err
	case action.KindCursorMove:
		seq, ok := cursorBytes[act.Direction]
		if !ok {
			return fmt.Errorf("no sequence for direction %s", act.Direction)
		}
		_, err := session.Write([]byte(seq))
		return err
	case action.KindCustom:
		if act.Name == "parse_error" {
			log.Printf("parse error: %s", strings.Join(act.Args, " "))
			return nil
		}
		log.Printf("custom action: %s", act)
		return nil
	default:
		return fmt.Errorf("unhandled action %s", act)
	}
}

// executeCommand hands a parsed command to the agent runtime. That
// runtime is external; builtin help is answered locally and everything
// else is logged as submitted.
func executeCommand(helpReg *command.Registry, cmd *command.Agent) error {
	fields := strings.Fields(cmd.Prompt)
	if len(fields) > 0 && fields[0] == "help" {
		topic := ""
		if len(fields) > 1 {
			topic = fields[1]
		}
		log.Print(helpReg.HelpText(topic))
		return nil
	}

	log.Printf("agent command: %s (session %d scrollback lines)",
		cmd, len(cmd.Context.Scrollback))
	return nil
}
