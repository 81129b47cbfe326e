package fetch

import (
	"io"
	"sync"

	"go.uber.org/atomic"
)

const teeChunkSize = 32 * 1024

// teeSource pulls from src lazily and keeps what it read so that every
// branch sees the full stream no matter how the reads interleave.
// mu guards buf and err and is held across src.Read; branch counting is
// lock free so closing never waits behind a stalled Read.
type teeSource struct {
	mu       sync.Mutex
	src      io.Reader
	buf      []byte
	err      error
	branches *atomic.Int32
}

// teeBranch is one independently consumable view of a teeSource.
type teeBranch struct {
	source *teeSource
	off    int
	closed *atomic.Bool
}

// tee splits r into two readers, each yielding the complete content of r.
func tee(r io.Reader) (io.ReadCloser, io.ReadCloser) {
	s := &teeSource{src: r, branches: atomic.NewInt32(2)}
	return &teeBranch{source: s, closed: atomic.NewBool(false)},
		&teeBranch{source: s, closed: atomic.NewBool(false)}
}

func (b *teeBranch) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s := b.source
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}

	for b.off >= len(s.buf) {
		if s.err != nil {
			return 0, s.err
		}
		chunk := make([]byte, teeChunkSize)
		n, err := s.src.Read(chunk)
		s.buf = append(s.buf, chunk[:n]...)
		if err != nil {
			s.err = err
		}
		if n == 0 && err == nil {
			// a reader returning 0, nil is discouraged but legal
			return 0, nil
		}
	}

	n := copy(p, s.buf[b.off:])
	b.off += n
	return n, nil
}

// Close detaches the branch. The underlying reader is closed once every
// branch is closed.
func (b *teeBranch) Close() error {
	s := b.source
	if !b.closed.CAS(false, true) {
		return nil
	}
	if s.branches.Dec() > 0 {
		return nil
	}
	// closing src unblocks a Read still holding s.mu
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
