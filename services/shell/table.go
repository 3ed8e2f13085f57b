// Package shell is a line-oriented command interpreter over a byte stream.
// Commands are looked up in an immutable table by exact, case-sensitive
// name; the first token of a line names the command and the whole token
// list, name included, is handed to the handler.
package shell

import (
	"fmt"
	"io"

	"devicecore-go/errcode"
)

// Handler writes its output to w. args[0] is the command name.
type Handler func(w io.Writer, args []string)

type Command struct {
	Name    string
	Help    string
	Handler Handler
}

// Table is the immutable command table.
type Table struct {
	cmds  []Command
	index map[string]int
}

func NewTable(cmds ...Command) (*Table, error) {
	t := &Table{cmds: append([]Command(nil), cmds...), index: make(map[string]int, len(cmds))}
	for i, c := range t.cmds {
		if c.Name == "" || c.Handler == nil {
			return nil, errcode.New(errcode.InvalidParams, "shell", fmt.Sprintf("command %d incomplete", i))
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errcode.New(errcode.Conflict, "shell", "duplicate command "+c.Name)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// WithBuiltins builds a table holding help and echo followed by cmds.
func WithBuiltins(cmds ...Command) (*Table, error) {
	var t *Table
	help := Command{
		Name:    "help",
		Help:    "Prints all supported commands",
		Handler: func(w io.Writer, _ []string) { t.PrintHelp(w) },
	}
	all := append([]Command{help, Echo}, cmds...)
	t, err := NewTable(all...)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) Lookup(name string) (Command, bool) {
	i, ok := t.index[name]
	if !ok {
		return Command{}, false
	}
	return t.cmds[i], true
}

// Commands returns the table in registration order.
func (t *Table) Commands() []Command { return append([]Command(nil), t.cmds...) }

func (t *Table) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "%-20s %s\n", "Command", "Description")
	fmt.Fprintln(w, "---------------------------------------")
	for _, c := range t.cmds {
		fmt.Fprintf(w, "%-20s %s\n", c.Name, c.Help)
	}
}
