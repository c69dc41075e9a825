package buffer

import (
	"context"
	"log/slog"
	"sync"
)

const listenerQueueDepth = 32

// Broadcaster fans a single stream of encoded chunks out to any number of
// concurrently-attached listeners, while also feeding a RingBuffer that
// late-joining listeners are not replayed from (each listener only sees
// chunks produced after it attaches). A slow listener never blocks the
// others or the writer: its queue is bounded, and once full its oldest
// queued chunk is dropped to make room for the newest one.
type Broadcaster struct {
	ring *RingBuffer

	mu        sync.Mutex
	listeners map[int]chan []byte
	nextID    int
}

// NewBroadcaster constructs a Broadcaster backed by the given RingBuffer.
func NewBroadcaster(ring *RingBuffer) *Broadcaster {
	return &Broadcaster{ring: ring, listeners: make(map[int]chan []byte)}
}

// Run drains chunks and feeds both the RingBuffer and every attached
// listener until ctx is cancelled or chunks closes.
func (b *Broadcaster) Run(ctx context.Context, chunks <-chan []byte) {
	b.ring.SetRunning(true)
	defer b.ring.SetRunning(false)

	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			b.ring.Push(chunk)
			b.fanOut(chunk)
		}
	}
}

func (b *Broadcaster) fanOut(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.listeners {
		select {
		case ch <- chunk:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- chunk:
			default:
				slog.Warn("listener queue full, dropping chunk", "listener", id)
			}
		}
	}
}

// Subscribe registers a new listener and returns its receive channel and a
// detach function that must be called when the listener disconnects.
func (b *Broadcaster) Subscribe() (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan []byte, listenerQueueDepth)
	b.listeners[id] = ch

	detach := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
	return ch, detach
}

// ListenerCount reports the number of currently attached listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// RingInfo reports the backing RingBuffer's current chunk and byte counts.
func (b *Broadcaster) RingInfo() (chunkCount, totalBytes int) {
	return b.ring.Info()
}

// IsRunning reports whether this broadcaster's writer loop is currently active.
func (b *Broadcaster) IsRunning() bool {
	return b.ring.IsRunning()
}
