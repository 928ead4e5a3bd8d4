package core

import "errors"

// Frame is one encoded signaling message.
type Frame []byte

// SignalConnection abstracts the directory's messaging transport to one
// participant. Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ErrBackpressure is returned by TrySend when the outbound queue is full.
var ErrBackpressure = errors.New("backpressure")
