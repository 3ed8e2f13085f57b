// Package core is the device model: drivers behind capability-typed
// handles, the platform device table and the registry tasks enumerate.
package core

import (
	"context"
	"log/slog"

	"devicecore-go/types"
)

// Driver is implemented by every concrete device kind. The handle decides
// which of the two operations is reachable from its Class.
type Driver interface {
	Read(ctx context.Context) (types.ScaledValue, error)
	Write(ctx context.Context, v types.ScaledValue) error
}

// Entry is one row of the platform device table.
type Entry struct {
	Name   string // optional
	Class  types.Class
	Driver Driver
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Log *slog.Logger
}

// Builder input
type BuilderInput struct {
	Name, Type string
	Params     any
	Res        Resources
}

// Builder turns one configured device into table entries. A multi-channel
// part may yield several entries sharing one driver.
type Builder interface {
	Build(ctx context.Context, in BuilderInput) ([]Entry, error)
}
