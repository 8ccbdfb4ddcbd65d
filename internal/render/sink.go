package render

import (
	"io"
	"net/http"
	"sync"
)

// Sink is the results container. Appends accumulate; Clear empties it before a new run.
type Sink interface {
	Append(block []byte) error
	Clear() error
}

// BufferSink keeps blocks in memory.
type BufferSink struct {
	mu     sync.Mutex
	blocks [][]byte
}

// NewBufferSink creates an empty in-memory sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

// Append stores a copy of block. Empty blocks are ignored.
func (b *BufferSink) Append(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = append(b.blocks, append([]byte(nil), block...))
	return nil
}

// Clear drops all blocks.
func (b *BufferSink) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = nil
	return nil
}

// Blocks returns a copy of the stored blocks in append order.
func (b *BufferSink) Blocks() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.blocks))
	copy(out, b.blocks)
	return out
}

// Len returns the number of stored blocks.
func (b *BufferSink) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// WriterSink writes blocks to an io.Writer, flushing after each block when the writer
// is an http.Flusher. ClearMarkup, when set, is written on Clear.
type WriterSink struct {
	mu          sync.Mutex
	w           io.Writer
	ClearMarkup []byte
}

// NewWriterSink creates a sink over w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Append writes block and flushes. Empty blocks are ignored.
func (s *WriterSink) Append(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(block); err != nil {
		return err
	}
	s.flush()
	return nil
}

// Clear writes ClearMarkup, if any.
func (s *WriterSink) Clear() error {
	if len(s.ClearMarkup) == 0 {
		return nil
	}
	return s.Append(s.ClearMarkup)
}

func (s *WriterSink) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
