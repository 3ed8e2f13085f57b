package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"devicecore-go/bus"
	"devicecore-go/services/control"
	"devicecore-go/services/hal/core"
	"devicecore-go/services/shell"
	"devicecore-go/types"
	"devicecore-go/x/timex"
)

// ShellOwner is the claim name used by "saul write".
const ShellOwner = "shell"

const requestTimeout = time.Second

func (a *App) commands() []shell.Command {
	cmds := []shell.Command{
		{Name: "saul", Help: "interact with sensor/actuator devices", Handler: a.cmdSaul},
		{Name: "ps", Help: "Prints information about running threads.", Handler: a.cmdPs},
		{Name: "uptime", Help: "Time since boot", Handler: a.cmdUptime},
	}
	if a.cfg.Control != nil {
		cmds = append(cmds, shell.Command{Name: "ctl", Help: "Control loop status and settings", Handler: a.cmdCtl})
	}
	return cmds
}

// -----------------------------------------------------------------------------
// saul
// -----------------------------------------------------------------------------

func (a *App) cmdSaul(w io.Writer, args []string) {
	if len(args) == 1 {
		a.saulList(w)
		return
	}
	switch args[1] {
	case "read":
		if len(args) != 3 {
			fmt.Fprintln(w, "usage: saul read <device id>|all")
			return
		}
		if args[2] == "all" {
			for d := range a.reg.All() {
				a.saulRead(w, d)
			}
			return
		}
		if d, ok := a.device(w, args[2]); ok {
			a.saulRead(w, d)
		}
	case "write":
		if len(args) < 4 {
			fmt.Fprintln(w, "usage: saul write <device id> <value 0> [<value 1> [<value 2]]")
			return
		}
		if d, ok := a.device(w, args[2]); ok {
			a.saulWrite(w, d, args[3:])
		}
	case "res":
		a.saulResources(w)
	default:
		fmt.Fprintln(w, "usage: saul read|write|res")
	}
}

func (a *App) saulList(w io.Writer) {
	if a.reg.Len() == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}
	fmt.Fprintf(w, "%-4s %-12s %-12s %-5s %s\n", "ID", "Class", "Name", "State", "Owner")
	for d := range a.reg.All() {
		owner, _ := a.reg.Owner(d)
		name, ok := d.Name()
		if !ok {
			name = "(unnamed)"
		}
		state := "-"
		if s, ok := d.Driver().(interface{ State() bool }); ok {
			state = "off"
			if s.State() {
				state = "on"
			}
		}
		fmt.Fprintf(w, "#%-3d %-12s %-12s %-5s %s\n", d.Index(), d.Class(), name, state, owner)
	}
}

// resourceOwners is implemented by the platform's resource pool.
type resourceOwners interface {
	Pins() []int
	PinOwner(pin int) (string, bool)
	Buses() []string
	BusUsers(bus string) []string
}

func (a *App) saulResources(w io.Writer) {
	p, ok := a.plat.Resources().(resourceOwners)
	if !ok {
		fmt.Fprintln(w, "error: platform does not report resource owners")
		return
	}
	fmt.Fprintf(w, "%-8s %s\n", "Resource", "Owner")
	for _, n := range p.Pins() {
		owner, _ := p.PinOwner(n)
		fmt.Fprintf(w, "gpio%-4d %s\n", n, owner)
	}
	for _, b := range p.Buses() {
		users := p.BusUsers(b)
		if len(users) == 0 {
			users = []string{"-"}
		}
		fmt.Fprintf(w, "%-8s %s\n", b, strings.Join(users, ","))
	}
}

func (a *App) device(w io.Writer, id string) (core.Device, bool) {
	i, err := strconv.Atoi(id)
	if err != nil {
		fmt.Fprintln(w, "error: device id must be a number")
		return core.Device{}, false
	}
	d, ok := a.reg.ByIndex(i)
	if !ok {
		fmt.Fprintln(w, "error: undefined device id given")
	}
	return d, ok
}

func (a *App) saulRead(w io.Writer, d core.Device) {
	fmt.Fprintf(w, "Reading from #%d (%s|%s)\n", d.Index(), d.Label(), d.Class())
	v, err := d.Read(a.ctx)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Data: %s\n", v)
}

// saulWrite takes the device for the shell unless a task already owns it.
func (a *App) saulWrite(w io.Writer, d core.Device, vals []string) {
	raw := make([]int16, 0, len(vals))
	for _, s := range vals {
		switch s {
		case "on":
			raw = append(raw, 1)
		case "off":
			raw = append(raw, 0)
		default:
			x, err := strconv.ParseInt(s, 10, 16)
			if err != nil {
				fmt.Fprintf(w, "error: bad value %q\n", s)
				return
			}
			raw = append(raw, int16(x))
		}
	}
	v, err := types.NewScaledValue(types.UnitBool, 0, raw...)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	act, err := a.reg.Claim(ShellOwner, d)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Writing to #%d (%s): %s\n", d.Index(), d.Label(), v)
	if err := act.Write(a.ctx, v); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}

// -----------------------------------------------------------------------------
// ps, uptime
// -----------------------------------------------------------------------------

func (a *App) cmdPs(w io.Writer, _ []string) {
	fmt.Fprintf(w, "\t%3s | %-16s | %-8s | %3s | %5s\n", "pid", "name", "state", "pri", "stack")
	for _, t := range a.sched.Threads() {
		fmt.Fprintf(w, "\t%3d | %-16s | %-8s | %3d | %5d\n", t.PID, t.Name, t.State, t.Priority, t.StackSize)
	}
}

func (a *App) cmdUptime(w io.Writer, _ []string) {
	fmt.Fprintln(w, "up", timex.FormatUptime(a.msec.Since(a.boot)))
}

// -----------------------------------------------------------------------------
// ctl
// -----------------------------------------------------------------------------

func (a *App) cmdCtl(w io.Writer, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(w, "usage: ctl status|on|off|threshold <value>")
		return
	}
	switch args[1] {
	case "status":
		m, ok := a.bus.Retained(control.TopicState)
		if !ok {
			fmt.Fprintln(w, "ctl: no state yet")
			return
		}
		st, _ := m.Payload.(control.State)
		printState(w, st)
	case "on":
		a.ctlRequest(w, control.TopicEnable, nil)
	case "off":
		a.ctlRequest(w, control.TopicDisable, nil)
	case "threshold":
		if len(args) != 3 {
			fmt.Fprintln(w, "usage: ctl threshold <value>")
			return
		}
		// Decimal text in the configured unit, e.g. 24.5 at scale -2.
		x, err := types.ParseFixed(args[2], a.cfg.Control.Scale)
		if err != nil {
			fmt.Fprintf(w, "error: bad threshold: %v\n", err)
			return
		}
		a.ctlRequest(w, control.TopicThreshold, x)
	default:
		fmt.Fprintln(w, "usage: ctl status|on|off|threshold <value>")
	}
}

func (a *App) ctlRequest(w io.Writer, topic bus.Topic, payload any) {
	ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
	defer cancel()
	m, err := a.conn.RequestWait(ctx, a.conn.NewMessage(topic, payload, false))
	if err != nil {
		fmt.Fprintf(w, "error: ctl: %v\n", err)
		return
	}
	r, _ := m.Payload.(control.Reply)
	if !r.OK {
		fmt.Fprintf(w, "error: ctl: %s\n", r.Err)
		return
	}
	printState(w, r.State)
}

func printState(w io.Writer, s control.State) {
	mode := "enabled"
	if !s.Enabled {
		mode = "disabled"
	}
	out := "off"
	if s.On {
		out = "on"
	}
	fmt.Fprintf(w, "ctl %s: %s %s, threshold %s, %s %s\n",
		mode, s.Sensor, s.Value, s.ThresholdText(), s.Actuator, out)
	if s.Failures > 0 {
		fmt.Fprintf(w, "ctl: %d consecutive read failures\n", s.Failures)
	}
}
