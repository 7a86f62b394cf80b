package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/flashauction/blockengine/bundle"
)

// ErrChannelFull is returned by Push when a window's channel buffer is
// saturated.
var ErrChannelFull = errors.New("queue: channel buffer full")

// ChannelQueue is the in-process deployment topology: a buffered channel
// per window id, for single-binary setups that don't want an external
// Redis dependency.
type ChannelQueue struct {
	mu       sync.Mutex
	bufSize  int
	channels map[uint64]chan bundle.Bundle
}

// NewChannelQueue constructs a ChannelQueue whose per-window channels
// each hold up to bufSize bundles before Push starts failing.
func NewChannelQueue(bufSize int) *ChannelQueue {
	return &ChannelQueue{
		bufSize:  bufSize,
		channels: make(map[uint64]chan bundle.Bundle),
	}
}

func (q *ChannelQueue) channelFor(windowID uint64) chan bundle.Bundle {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch, ok := q.channels[windowID]
	if !ok {
		ch = make(chan bundle.Bundle, q.bufSize)
		q.channels[windowID] = ch
	}
	return ch
}

// Push enqueues b for windowID without blocking; it fails with
// ErrChannelFull if the window's buffer is saturated.
func (q *ChannelQueue) Push(windowID uint64, b bundle.Bundle) error {
	select {
	case q.channelFor(windowID) <- b:
		return nil
	default:
		return ErrChannelFull
	}
}

// PopAll drains every bundle currently buffered for windowID without
// blocking for more to arrive.
func (q *ChannelQueue) PopAll(_ context.Context, windowID uint64) ([]bundle.Bundle, error) {
	ch := q.channelFor(windowID)
	var bundles []bundle.Bundle
	for {
		select {
		case b := <-ch:
			bundles = append(bundles, b)
		default:
			return bundles, nil
		}
	}
}

// Delete removes the window's channel entirely. Any bundles still
// buffered in it are discarded.
func (q *ChannelQueue) Delete(_ context.Context, windowID uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.channels, windowID)
	return nil
}
