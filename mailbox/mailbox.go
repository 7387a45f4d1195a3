// Package mailbox provides a bounded FIFO channel between two actors where either
// endpoint can leave.
//
// A plain Go channel only lets the sender signal departure (close). Actors in the
// observe pipeline also need the opposite direction: when a consumer stops, its
// producer must observe a failed send and exit instead of blocking forever. Values
// that are still buffered when the receiver leaves are handed to a release function,
// so resources they own (spans, gauges) are not leaked.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrReceiverGone is returned by Send once the receiving side has closed.
var ErrReceiverGone = errors.New("mailbox: receiver gone")

// Mailbox is a bounded, single-sender, single-receiver FIFO.
type Mailbox[T any] struct {
	ch      chan T
	rxDone  chan struct{}
	release func(T)

	txOnce sync.Once
	rxOnce sync.Once
}

// New returns a Mailbox with the given buffer capacity. release, if non-nil, is called
// for every buffered value discarded because the receiver closed.
func New[T any](capacity int, release func(T)) *Mailbox[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Mailbox[T]{
		ch:      make(chan T, capacity),
		rxDone:  make(chan struct{}),
		release: release,
	}
}

// Cap returns the buffer capacity.
func (m *Mailbox[T]) Cap() int { return cap(m.ch) }

// Len returns the number of buffered values.
func (m *Mailbox[T]) Len() int { return len(m.ch) }

// Send enqueues v, blocking while the buffer is full. On a nil return ownership of v
// has passed to the mailbox: it is either received or released.
// It returns ErrReceiverGone if the receiver has closed, or ctx.Err() if ctx is done
// first; in both cases v stays owned by the caller.
//
// Send must not be called after CloseSender.
func (m *Mailbox[T]) Send(ctx context.Context, v T) error {
	select {
	case <-m.rxDone:
		return ErrReceiverGone
	default:
	}

	select {
	case m.ch <- v:
	case <-m.rxDone:
		return ErrReceiverGone
	case <-ctx.Done():
		return ctx.Err()
	}

	// The receiver may have left while v was being enqueued and its drain may already
	// have finished, so drain again here. Either way v is no longer the caller's.
	select {
	case <-m.rxDone:
		m.drain()
	default:
	}
	return nil
}

// Recv dequeues the next value. ok is false once the sender has closed and the
// buffer is drained, or when ctx is done.
func (m *Mailbox[T]) Recv(ctx context.Context) (v T, ok bool) {
	select {
	case v, ok = <-m.ch:
		return v, ok
	case <-ctx.Done():
		return v, false
	}
}

// CloseSender marks the sending side as gone. Buffered values remain receivable.
func (m *Mailbox[T]) CloseSender() {
	m.txOnce.Do(func() { close(m.ch) })
}

// CloseReceiver marks the receiving side as gone: pending and future sends fail with
// ErrReceiverGone and buffered values are released.
func (m *Mailbox[T]) CloseReceiver() {
	m.rxOnce.Do(func() { close(m.rxDone) })
	m.drain()
}

// ReceiverGone is closed once the receiver has left.
func (m *Mailbox[T]) ReceiverGone() <-chan struct{} { return m.rxDone }

func (m *Mailbox[T]) drain() {
	for {
		select {
		case v, ok := <-m.ch:
			if !ok {
				return
			}
			if m.release != nil {
				m.release(v)
			}
		default:
			return
		}
	}
}
