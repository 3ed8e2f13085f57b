// Package console adapts a byte-stream receiver (a UART, a pipe) into the
// blocking io.Reader the shell consumes. A pump goroutine moves received
// bytes into an SPSC ring; overruns are dropped and counted rather than
// stalling the receiver.
package console

import (
	"context"
	"errors"
	"io"
	"sync"

	"devicecore-go/x/shmring"
)

// RecvFunc blocks until at least one byte is received, ctx ends, or the
// stream fails. uartx.UART.RecvSomeContext has this shape.
type RecvFunc func(ctx context.Context, p []byte) (int, error)

// Reader is the consumer end of the pump.
type Reader struct {
	ring *shmring.Ring
	done chan struct{}

	mu  sync.Mutex
	err error
}

// NewReader starts pumping recv into a ring of size bytes (power of two).
// The pump stops when ctx ends or recv fails; Read then drains what is
// buffered and returns the terminal error (io.EOF for a clean stop).
func NewReader(ctx context.Context, recv RecvFunc, size int) *Reader {
	r := &Reader{ring: shmring.New(size), done: make(chan struct{})}
	go r.pump(ctx, recv)
	return r
}

// FromReader pumps a plain io.Reader.
func FromReader(ctx context.Context, src io.Reader, size int) *Reader {
	return NewReader(ctx, func(_ context.Context, p []byte) (int, error) {
		return src.Read(p)
	}, size)
}

func (r *Reader) pump(ctx context.Context, recv RecvFunc) {
	defer close(r.done)
	buf := make([]byte, 64)
	for {
		n, err := recv(ctx, buf)
		if n > 0 {
			r.ring.TryWriteFrom(buf[:n])
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				err = io.EOF
			}
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
	}
}

// Read blocks until bytes are available.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if n := r.ring.TryReadInto(p); n > 0 {
			return n, nil
		}
		select {
		case <-r.ring.Readable():
		case <-r.done:
			if n := r.ring.TryReadInto(p); n > 0 {
				return n, nil
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			return 0, r.err
		}
	}
}

// Drops counts received bytes discarded because the consumer fell behind.
func (r *Reader) Drops() uint32 { return r.ring.Drops() }

// EchoReader copies every byte read to w, for raw serial terminals that
// expect the device to echo input. Carriage returns are echoed as CRLF.
type EchoReader struct {
	R io.Reader
	W io.Writer
}

func (e EchoReader) Read(p []byte) (int, error) {
	n, err := e.R.Read(p)
	for _, b := range p[:n] {
		if b == '\r' {
			_, _ = e.W.Write([]byte("\r\n"))
			continue
		}
		_, _ = e.W.Write([]byte{b})
	}
	return n, err
}

// CRLFWriter expands "\n" to "\r\n" for serial terminals.
type CRLFWriter struct{ W io.Writer }

func (c CRLFWriter) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' || (i > 0 && p[i-1] == '\r') {
			continue
		}
		if _, err := c.W.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := c.W.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if _, err := c.W.Write(p[start:]); err != nil {
		return start, err
	}
	return len(p), nil
}
