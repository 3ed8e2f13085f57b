package aht20

import "sync"

// Emulator is an in-memory AHT20 answering on a drivers.I2C bus. The
// simulated board and tests use it in place of hardware.
type Emulator struct {
	mu         sync.Mutex
	addr       uint16
	calibrated bool
	busyPolls  int // Collect attempts that report busy after each trigger
	pending    int
	rawT       uint32
	rawH       uint32
	fail       error
	failCount  int
	triggers   int
}

// NewEmulator answers at addr (0 => Address) with 25.00 °C and 50.00 %RH.
func NewEmulator(addr uint16) *Emulator {
	if addr == 0 {
		addr = Address
	}
	e := &Emulator{addr: addr}
	e.SetCentiCelsius(2500)
	e.SetCentiRelHumidity(5000)
	return e
}

// SetCentiCelsius sets the temperature the next conversion reports.
func (e *Emulator) SetCentiCelsius(c int32) {
	e.mu.Lock()
	e.rawT = uint32(((int64(c)+5000)<<20 + 19999) / 20000)
	e.mu.Unlock()
}

// SetCentiRelHumidity sets the humidity the next conversion reports.
func (e *Emulator) SetCentiRelHumidity(h int32) {
	e.mu.Lock()
	e.rawH = uint32((int64(h)<<20 + 9999) / 10000)
	e.mu.Unlock()
}

// SetBusyPolls makes each conversion report busy for n collects.
func (e *Emulator) SetBusyPolls(n int) {
	e.mu.Lock()
	e.busyPolls = n
	e.mu.Unlock()
}

// FailNext makes the next n transactions return err.
func (e *Emulator) FailNext(n int, err error) {
	e.mu.Lock()
	e.fail, e.failCount = err, n
	e.mu.Unlock()
}

func (e *Emulator) Triggers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.triggers
}

// Tx implements drivers.I2C.
func (e *Emulator) Tx(addr uint16, w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if addr != e.addr {
		return errNoAck
	}
	if e.failCount > 0 {
		e.failCount--
		return e.fail
	}
	if len(w) > 0 {
		switch w[0] {
		case cmdInitialize:
			e.calibrated = true
		case cmdSoftReset:
			e.calibrated = false
		case cmdTrigger:
			e.triggers++
			e.pending = e.busyPolls
		}
	}
	if len(r) == 0 {
		return nil
	}
	st := byte(0)
	if e.calibrated {
		st |= statusCalibrated
	}
	if len(w) == 0 && e.pending > 0 {
		e.pending--
		st |= statusBusy
	}
	r[0] = st
	if len(r) >= 7 {
		r[1] = byte(e.rawH >> 12)
		r[2] = byte(e.rawH >> 4)
		r[3] = byte(e.rawH<<4) | byte(e.rawT>>16)&0x0F
		r[4] = byte(e.rawT >> 8)
		r[5] = byte(e.rawT)
		r[6] = 0
	}
	return nil
}

type emuError string

func (e emuError) Error() string { return string(e) }

const errNoAck = emuError("aht20: no ack")
