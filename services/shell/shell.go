package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/shlex"
)

type Config struct {
	Prompt string // printed before each line; empty for none
	Log    *slog.Logger
}

// Shell reads lines, tokenises them with shell quoting rules and dispatches
// to the command table. Input errors and handler failures are reported on
// the output stream and the shell carries on.
type Shell struct {
	table *Table
	in    LineReader
	out   io.Writer
	cfg   Config
}

func New(table *Table, in LineReader, out io.Writer, cfg Config) *Shell {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Shell{table: table, in: in, out: out, cfg: cfg}
}

type lineResult struct {
	line string
	err  error
}

// Run serves lines until the input reaches io.EOF or ctx ends; both are a
// clean stop. A read blocked when ctx ends is abandoned.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan lineResult)
	next := make(chan struct{}, 1)
	go func() {
		for range next {
			l, err := s.in.ReadLine()
			select {
			case lines <- lineResult{l, err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer close(next)

	for {
		if s.cfg.Prompt != "" {
			fmt.Fprint(s.out, s.cfg.Prompt)
		}
		next <- struct{}{}
		var r lineResult
		select {
		case <-ctx.Done():
			return nil
		case r = <-lines:
		}
		switch {
		case r.err == nil:
			s.Exec(r.line)
		case errors.Is(r.err, io.EOF):
			return nil
		case errors.Is(r.err, ErrLineTooLong):
			fmt.Fprintln(s.out, r.err)
		default:
			return r.err
		}
	}
}

// Exec runs one input line.
func (s *Shell) Exec(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(s.out, "shell: %v\n", err)
		return
	}
	if len(args) == 0 {
		return
	}
	cmd, ok := s.table.Lookup(args[0])
	if !ok {
		fmt.Fprintf(s.out, "shell: command not found: %s\n", args[0])
		return
	}
	s.dispatch(cmd, args)
}

func (s *Shell) dispatch(cmd Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.Log.Error("command panicked", "cmd", cmd.Name, "panic", r)
			fmt.Fprintf(s.out, "shell: %s: internal error\n", cmd.Name)
		}
	}()
	cmd.Handler(s.out, args)
}
