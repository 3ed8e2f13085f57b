// Command devicecore runs a board profile on the host against the
// simulated board, with the shell on the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"devicecore-go/errcode"
	"devicecore-go/services/app"
	"devicecore-go/services/config"
	"devicecore-go/services/hal/platform/sim"
	"devicecore-go/services/shell"
	"devicecore-go/types"
	"devicecore-go/x/logx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errcode.Fatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		board      string
		cfgPath    string
		logLevel   string
		logFormat  string
		noReadline bool
	)
	fs := pflag.NewFlagSet("devicecore", pflag.ContinueOnError)
	fs.StringVar(&board, "board", "sim", "embedded board profile: "+strings.Join(config.Boards(), ", "))
	fs.StringVar(&cfgPath, "config", "", "YAML board profile (overrides --board)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&logFormat, "log-format", "", "text, json or auto")
	fs.BoolVar(&noReadline, "no-readline", false, "read the console as a plain stream")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var cfg *types.BoardConfig
	var err error
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.Embedded(board)
	}
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var con app.Console
	logOut := io.Writer(os.Stderr)
	if !noReadline && logx.IsTerminal(os.Stdin) && logx.IsTerminal(os.Stdout) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          cfg.Console.Prompt,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return fmt.Errorf("readline: %w", err)
		}
		defer rl.Close()
		con = app.Console{In: readlineReader(rl), Out: rl.Stdout()}
		logOut = rl.Stderr()
		// readline draws the prompt itself.
		cfg.Console.Prompt = ""
	}

	log := logx.New(cfg.Logging, cfg.Board, logOut)
	return app.Boot(ctx, cfg, sim.New(), con, log)
}

func readlineReader(rl *readline.Instance) shell.LineReader {
	return shell.ReaderFunc(func() (string, error) {
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return "", io.EOF
				}
				continue
			}
			return line, err
		}
	})
}
