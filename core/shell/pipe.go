package shell

import (
	"errors"
	"io"
	"sync"
)

var errPipeClosed = errors.New("io on closed pipe")

// pipe is a bounded in-memory byte pipe. Writers block when the buffer
// is full and readers block when it is empty, so a command and its
// drain goroutine make progress in lockstep without unbounded memory.
type pipe struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	max      int
	wrClosed bool
	rdClosed bool
}

func newPipe(capacity int) *pipe {
	p := &pipe{max: capacity}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.buf) == 0 {
		if p.rdClosed {
			return 0, errPipeClosed
		}
		if p.wrClosed {
			return 0, io.EOF
		}
		p.cond.Wait()
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	p.cond.Broadcast()
	return n, nil
}

func (p *pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	written := 0
	for written < len(b) {
		if p.rdClosed || p.wrClosed {
			return written, errPipeClosed
		}
		room := p.max - len(p.buf)
		if room == 0 {
			p.cond.Wait()
			continue
		}
		chunk := b[written:]
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		p.buf = append(p.buf, chunk...)
		written += len(chunk)
		p.cond.Broadcast()
	}
	return written, nil
}

// CloseWrite signals end of input; pending bytes stay readable and
// then readers see EOF.
func (p *pipe) CloseWrite() {
	p.mu.Lock()
	p.wrClosed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// CloseRead unblocks any writer still waiting for room, used when a
// command exits without consuming its input.
func (p *pipe) CloseRead() {
	p.mu.Lock()
	p.rdClosed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}
