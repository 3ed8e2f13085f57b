// Package shmring is a single-producer, single-consumer byte ring. The
// producer side never blocks and never allocates, so it can be fed from an
// RX interrupt or a pump goroutine while the consumer blocks on Readable.
//
// Every successful write leaves a token on Readable. A consumer that finds
// the ring empty and then waits on Readable therefore always wakes for any
// byte written after its check.
package shmring

import (
	"sync/atomic"
)

// Ring is a single-producer, single-consumer byte ring.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	drops atomic.Uint32 // bytes refused by a full ring

	readable chan struct{} // at most one pending wake-up
}

// New allocates a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Space is the number of bytes the producer may write right now.
func (r *Ring) Space() int {
	return int(r.size() - (r.wr.Load() - r.rd.Load()))
}

// Available is the number of bytes the consumer may read right now.
func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// TryWriteFrom copies as much of src as fits and returns the count.
// Bytes that do not fit are counted as drops.
func (r *Ring) TryWriteFrom(src []byte) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	space := int(r.size() - (wr - rd))
	if space <= 0 {
		r.drops.Add(uint32(len(src)))
		return 0
	}
	n = len(src)
	if n > space {
		r.drops.Add(uint32(n - space))
		n = space
	}

	wrIdx := wr & r.mask
	first := int(r.size() - wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
	r.wr.Store(wr + uint32(n)) // release

	// rd may be stale here, so "was empty" cannot be decided on this side.
	select {
	case r.readable <- struct{}{}:
	default:
	}
	return n
}

// TryReadInto copies up to len(dst) buffered bytes and returns the count.
func (r *Ring) TryReadInto(dst []byte) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	n = avail
	if n > len(dst) {
		n = len(dst)
	}

	rdIdx := rd & r.mask
	first := int(r.size() - rdIdx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n)) // release
	return n
}

// Drops reports how many bytes the producer had to discard.
func (r *Ring) Drops() uint32 { return r.drops.Load() }

// Readable receives after writes. A token may be stale; re-check with
// TryReadInto.
func (r *Ring) Readable() <-chan struct{} { return r.readable }
