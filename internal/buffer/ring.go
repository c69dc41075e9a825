// Package buffer implements the bounded per-stream broadcast buffer: a
// FIFO ring of encoded chunks with a single logical writer and a
// multi-listener fan-out layer built on top of it.
package buffer

import "sync"

// RingBuffer is a concurrent bounded byte-chunk FIFO with two caps:
// maximum chunk count and maximum total bytes. Old chunks are evicted
// from the front to make room for new ones; a single chunk larger than
// maxBytes is dropped entirely rather than emptying the buffer.
type RingBuffer struct {
	mu         sync.Mutex
	chunks     [][]byte
	totalBytes int
	maxChunks  int
	maxBytes   int
	running    bool
}

// NewRingBuffer constructs a buffer bounded by maxChunks and maxBytes.
func NewRingBuffer(maxChunks, maxBytes int) *RingBuffer {
	return &RingBuffer{maxChunks: maxChunks, maxBytes: maxBytes}
}

// Push appends chunk, evicting from the front as needed to respect both
// caps. An oversized chunk (larger than maxBytes) is dropped entirely.
func (b *RingBuffer) Push(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(chunk) > b.maxBytes {
		return
	}

	for b.totalBytes+len(chunk) > b.maxBytes && len(b.chunks) > 0 {
		b.evictFront()
	}

	b.chunks = append(b.chunks, chunk)
	b.totalBytes += len(chunk)

	for len(b.chunks) > b.maxChunks {
		b.evictFront()
	}
}

// evictFront removes the oldest chunk. Caller must hold b.mu.
func (b *RingBuffer) evictFront() {
	b.totalBytes -= len(b.chunks[0])
	b.chunks = b.chunks[1:]
}

// ReadChunk pops chunks from the front and concatenates them until the
// cumulative size reaches maxSize or the buffer is empty. Returns nil if
// no chunks were popped; returns the single popped chunk unmodified if
// exactly one was popped; otherwise returns the concatenation.
func (b *RingBuffer) ReadChunk(maxSize int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	var popped [][]byte
	size := 0
	for size < maxSize && len(b.chunks) > 0 {
		c := b.chunks[0]
		b.chunks = b.chunks[1:]
		b.totalBytes -= len(c)
		popped = append(popped, c)
		size += len(c)
	}

	switch len(popped) {
	case 0:
		return nil
	case 1:
		return popped[0]
	default:
		out := make([]byte, 0, size)
		for _, c := range popped {
			out = append(out, c...)
		}
		return out
	}
}

// Info returns the current chunk count and total byte count.
func (b *RingBuffer) Info() (chunkCount, totalBytes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks), b.totalBytes
}

// SetRunning records whether the writer task feeding this buffer is alive.
func (b *RingBuffer) SetRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = running
}

// IsRunning reports whether the writer task feeding this buffer is alive.
func (b *RingBuffer) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}
