package sim

import (
	"strconv"
	"sync"

	"tinygo.org/x/drivers"

	"devicecore-go/errcode"
)

// I2CBus routes transactions to the targets attached at each address.
type I2CBus struct {
	mu      sync.Mutex
	targets map[uint16]drivers.I2C
	txs     int
}

func NewI2CBus() *I2CBus { return &I2CBus{targets: map[uint16]drivers.I2C{}} }

// Attach places a target at addr.
func (b *I2CBus) Attach(addr uint16, t drivers.I2C) {
	b.mu.Lock()
	b.targets[addr] = t
	b.mu.Unlock()
}

// Tx implements drivers.I2C. Transactions are serialised.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs++
	t, ok := b.targets[addr]
	if !ok {
		return errcode.New(errcode.Timeout, "i2c", "no ack at 0x"+strconv.FormatUint(uint64(addr), 16))
	}
	return t.Tx(addr, w, r)
}

// Transactions counts every Tx issued on the bus.
func (b *I2CBus) Transactions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}
