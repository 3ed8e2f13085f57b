//go:build tinygo

package logx

import "io"

// IsTerminal is always false on the microcontroller console.
func IsTerminal(io.Writer) bool { return false }
