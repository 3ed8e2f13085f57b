// Package platform describes the board bring-up collaborators the runtime
// boots on: hardware resources, the two native timers and the console.
package platform

import (
	"io"

	"devicecore-go/sched"
	"devicecore-go/services/hal/core"
)

// Timers are the native timers behind the seconds and milliseconds clocks.
type Timers struct {
	Sec  sched.Timer
	Msec sched.Timer
}

type Platform interface {
	Name() string
	Resources() core.ResourceRegistry
	Timers() Timers
	Console() (io.Reader, io.Writer)
}
