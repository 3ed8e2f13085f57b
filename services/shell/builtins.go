package shell

import (
	"fmt"
	"io"
)

// Echo prints its single argument. Quote the message to echo several words.
var Echo = Command{
	Name: "echo",
	Help: "Echo a message",
	Handler: func(w io.Writer, args []string) {
		if len(args) != 2 {
			fmt.Fprintln(w, "Usage: echo <message>")
			fmt.Fprintln(w, `Note: to echo multiple words wrap the message in "".`)
			return
		}
		fmt.Fprintln(w, args[1])
	},
}
