package core

import (
	"context"
	"iter"
	"strconv"
	"sync"

	"devicecore-go/errcode"
	"devicecore-go/types"
)

// Table is the platform device table: built once at boot, read-only after.
type Table struct {
	entries []Entry
}

func NewTable(entries ...Entry) *Table {
	return &Table{entries: append([]Entry(nil), entries...)}
}

func (t *Table) Len() int       { return len(t.entries) }
func (t *Table) At(i int) Entry { return t.entries[i] }

// Device is a handle onto one table row. It is a small value and does not
// own the hardware.
type Device struct {
	idx int
	e   Entry
}

func (d Device) Index() int           { return d.idx }
func (d Device) Class() types.Class   { return d.e.Class }
func (d Device) Driver() Driver       { return d.e.Driver }
func (d Device) Name() (string, bool) { return d.e.Name, d.e.Name != "" }

// Label names the device for logs: its name, or "#<index>".
func (d Device) Label() string {
	if d.e.Name != "" {
		return d.e.Name
	}
	return "#" + strconv.Itoa(d.idx)
}

// Read samples a sensor. Actuators return Unsupported; driver failures are
// reported as ReadFailed and never retried here.
func (d Device) Read(ctx context.Context) (types.ScaledValue, error) {
	if !d.e.Class.IsSensor() {
		return types.ScaledValue{}, errcode.New(errcode.Unsupported, "read", d.Label()+" is "+d.e.Class.String())
	}
	v, err := d.e.Driver.Read(ctx)
	if err != nil {
		return types.ScaledValue{}, errcode.Wrap(errcode.ReadFailed, "read "+d.Label(), err)
	}
	return v, nil
}

// Write commands an actuator. Sensors return Unsupported.
func (d Device) Write(ctx context.Context, v types.ScaledValue) error {
	if !d.e.Class.IsActuator() {
		return errcode.New(errcode.Unsupported, "write", d.Label()+" is "+d.e.Class.String())
	}
	if err := d.e.Driver.Write(ctx, v); err != nil {
		if errcode.Of(err) == errcode.UnitMismatch {
			return err
		}
		return errcode.Wrap(errcode.WriteFailed, "write "+d.Label(), err)
	}
	return nil
}

// Sensor is the read-only view of a sensor-class device.
type Sensor struct{ dev Device }

func (s Sensor) Device() Device { return s.dev }
func (s Sensor) Read(ctx context.Context) (types.ScaledValue, error) {
	return s.dev.Read(ctx)
}

// Actuator is the write view of an actuator-class device.
type Actuator struct{ dev Device }

func (a Actuator) Device() Device { return a.dev }
func (a Actuator) Write(ctx context.Context, v types.ScaledValue) error {
	return a.dev.Write(ctx, v)
}

func (d Device) Sensor() (Sensor, bool)     { return Sensor{d}, d.e.Class.IsSensor() }
func (d Device) Actuator() (Actuator, bool) { return Actuator{d}, d.e.Class.IsActuator() }

// Seq is a lazy, restartable enumeration of devices.
type Seq iter.Seq[Device]

// Filter keeps devices whose class satisfies pred, preserving order.
func (s Seq) Filter(pred types.ClassPredicate) Seq {
	return func(yield func(Device) bool) {
		for d := range s {
			if pred(d.Class()) && !yield(d) {
				return
			}
		}
	}
}

func (s Seq) First() (Device, bool) {
	for d := range s {
		return d, true
	}
	return Device{}, false
}

func (s Seq) Collect() []Device {
	var out []Device
	for d := range s {
		out = append(out, d)
	}
	return out
}

// Registry is the device inventory tasks query. It is created once from the
// table and shared by reference.
type Registry struct {
	table *Table

	mu     sync.Mutex
	owners map[int]string
}

func NewRegistry(t *Table) *Registry {
	return &Registry{table: t, owners: map[int]string{}}
}

func (r *Registry) Len() int { return r.table.Len() }

// All enumerates the table in order. Each enumeration reads the table
// afresh; nothing is cached.
func (r *Registry) All() Seq {
	return func(yield func(Device) bool) {
		for i := 0; i < r.table.Len(); i++ {
			if !yield(Device{idx: i, e: r.table.At(i)}) {
				return
			}
		}
	}
}

func (r *Registry) ByIndex(i int) (Device, bool) {
	if i < 0 || i >= r.table.Len() {
		return Device{}, false
	}
	return Device{idx: i, e: r.table.At(i)}, true
}

func (r *Registry) ByName(name string) (Device, bool) {
	for d := range r.All() {
		if n, ok := d.Name(); ok && n == name {
			return d, true
		}
	}
	return Device{}, false
}

// Require returns the first device matching pred, or DeviceMissing naming
// what was looked for.
func (r *Registry) Require(pred types.ClassPredicate, what string) (Device, error) {
	if d, ok := r.All().Filter(pred).First(); ok {
		return d, nil
	}
	return Device{}, errcode.New(errcode.DeviceMissing, "require", what)
}

// Resolve selects a device by name when the reference carries one, else by
// class, else by the fallback predicate.
func (r *Registry) Resolve(ref types.DeviceRef, fallback types.ClassPredicate, what string) (Device, error) {
	if ref.Name != "" {
		d, ok := r.ByName(ref.Name)
		if !ok {
			return Device{}, errcode.New(errcode.DeviceMissing, "require", what+" "+ref.Name)
		}
		if ref.Class != types.ClassUndef && d.Class() != ref.Class {
			return Device{}, errcode.New(errcode.DeviceMissing, "require",
				what+" "+ref.Name+" is "+d.Class().String()+" not "+ref.Class.String())
		}
		return d, nil
	}
	if ref.Class != types.ClassUndef {
		return r.Require(types.IsClass(ref.Class), what+" "+ref.Class.String())
	}
	return r.Require(fallback, what)
}

// Claim records owner as the single writer of an actuator. Claims happen
// at startup; the write path itself takes no lock.
func (r *Registry) Claim(owner string, d Device) (Actuator, error) {
	a, ok := d.Actuator()
	if !ok {
		return Actuator{}, errcode.New(errcode.Unsupported, "claim", d.Label()+" is not an actuator")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, held := r.owners[d.idx]; held && cur != owner {
		return Actuator{}, errcode.New(errcode.Conflict, "claim", d.Label()+" owned by "+cur)
	}
	r.owners[d.idx] = owner
	return a, nil
}

// Owner reports who claimed the device, if anyone.
func (r *Registry) Owner(d Device) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[d.idx]
	return o, ok
}
