// Package app is the composition root: it builds the device table from a
// board profile, starts the tasks the profile names and serves the shell.
package app

import (
	"context"
	"io"
	"log/slog"

	"devicecore-go/bus"
	"devicecore-go/sched"
	"devicecore-go/services/config"
	"devicecore-go/services/console"
	"devicecore-go/services/control"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/hal/platform"
	"devicecore-go/services/heartbeat"
	"devicecore-go/services/shell"
	"devicecore-go/types"

	// Device builders.
	_ "devicecore-go/services/hal/devices/aht20"
	_ "devicecore-go/services/hal/devices/gpio_button"
	_ "devicecore-go/services/hal/devices/gpio_dout"
	_ "devicecore-go/services/hal/devices/sim_temp"
)

const busQueueLen = 8

// Console overrides the platform console. A nil In reads lines from the
// platform stream; a nil Out writes to it.
type Console struct {
	In  shell.LineReader
	Out io.Writer
}

type App struct {
	cfg  *types.BoardConfig
	plat platform.Platform
	log  *slog.Logger
	ctx  context.Context
	stop context.CancelFunc

	bus   *bus.Bus
	reg   *core.Registry
	sec   *sched.Clock
	msec  *sched.Clock
	boot  uint64
	sched *sched.Scheduler
	shell *shell.Shell
	conn  *bus.Connection // shell side of ctl requests
}

// Boot brings the board up and runs until a thread fails or ctx ends.
// Startup precondition failures return before any thread starts.
func Boot(ctx context.Context, cfg *types.BoardConfig, plat platform.Platform, con Console, log *slog.Logger) error {
	a, err := New(ctx, cfg, plat, con, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// New performs every startup step short of running threads: the startup
// delay, the device table, task device claims and the shell table.
func New(ctx context.Context, cfg *types.BoardConfig, plat platform.Platform, con Console, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	t := plat.Timers()
	a := &App{
		cfg:   cfg,
		plat:  plat,
		log:   log,
		ctx:   ctx,
		bus:   bus.NewBus(busQueueLen),
		sec:   sched.Sec(t.Sec),
		msec:  sched.Msec(t.Msec),
		sched: sched.New(log),
	}
	a.boot = a.msec.Now()
	log.Info("boot", "platform", plat.Name(), "devices", len(cfg.Devices))

	if cfg.StartupDelay > 0 {
		log.Info("startup delay", "delay", cfg.StartupDelay)
		a.sec.SleepExtended(cfg.StartupDelay)
	}

	tab, err := core.BuildTable(ctx, cfg.Devices, core.Resources{Reg: plat.Resources(), Log: log})
	if err != nil {
		return nil, err
	}
	a.reg = core.NewRegistry(tab)
	for d := range a.reg.All() {
		log.Info("device", "id", d.Index(), "name", d.Label(), "class", d.Class().String())
	}
	config.Publish(a.bus.NewConnection("config"), cfg)

	threads, err := a.startTasks()
	if err != nil {
		return nil, err
	}

	table, err := shell.WithBuiltins(a.commands()...)
	if err != nil {
		return nil, err
	}
	in, out := con.In, con.Out
	if in == nil || out == nil {
		r, w := plat.Console()
		if out == nil {
			out = w
		}
		if in == nil {
			if cfg.Console.Echo {
				r = console.EchoReader{R: r, W: out}
			}
			in = shell.NewLineReader(r, cfg.Console.LineMax)
		}
	}
	a.shell = shell.New(table, in, out, shell.Config{Prompt: cfg.Console.Prompt, Log: log.With("thread", "main")})
	a.conn = a.bus.NewConnection("shell")

	// main is always PID 1.
	if _, err := a.sched.Spawn(sched.Spec{Name: "main", Entry: a.runShell}); err != nil {
		return nil, err
	}
	for _, s := range threads {
		if _, err := a.sched.Spawn(s); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// startTasks claims every task's devices before any thread runs, so a
// missing device or a contended actuator fails the boot.
func (a *App) startTasks() ([]sched.Spec, error) {
	var specs []sched.Spec
	if c := a.cfg.Control; c != nil {
		ctl := control.New(a.reg, a.msec, a.bus.NewConnection("ctl"), *c, a.log.With("thread", "ctl"))
		if err := ctl.Start(); err != nil {
			return nil, err
		}
		specs = append(specs, sched.Spec{Name: "ctl", Priority: c.Priority, StackSize: c.StackSize, Entry: ctl.Run})
	}
	if c := a.cfg.Toggle; c != nil {
		tg := control.NewToggle(a.reg, a.bus.NewConnection("toggle"), *c, a.log.With("thread", "toggle"))
		if err := tg.Start(); err != nil {
			return nil, err
		}
		specs = append(specs, sched.Spec{Name: "toggle", Priority: c.Priority, StackSize: c.StackSize, Entry: tg.Run})
	}
	if c := a.cfg.Heartbeat; c != nil {
		hb := heartbeat.New(a.reg, a.msec, *c, a.log.With("thread", "heartbeat"))
		if err := hb.Start(); err != nil {
			return nil, err
		}
		specs = append(specs, sched.Spec{Name: "heartbeat", Priority: c.Priority, StackSize: c.StackSize, Entry: hb.Run})
	}
	return specs, nil
}

// Run starts the threads and blocks until they have all stopped. The
// shell reaching end of input stops the others.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx, a.stop = ctx, cancel
	return a.sched.Run(ctx)
}

func (a *App) runShell(ctx context.Context) error {
	defer a.stop()
	return a.shell.Run(ctx)
}

func (a *App) Registry() *core.Registry    { return a.reg }
func (a *App) Bus() *bus.Bus               { return a.bus }
func (a *App) Scheduler() *sched.Scheduler { return a.sched }
