package device

import "github.com/octane-os/octane32/internal/ksync"

const (
	fifoCapacity = 256
	lineCapacity = 256

	cr  = '\r'
	nl  = '\n'
	del = 0x7F
	bs  = 0x08
)

// ConsoleBackend drains one output byte to the real display (VGA
// text mode or whatever the platform provides); TTY calls it after
// every byte it writes, per spec.md §4.7's "call the console backend
// to drain".
type ConsoleBackend interface {
	WriteByte(b byte)
}

// TTY is one of the N independent terminals spec.md §4.7 describes:
// input and output FIFOs, each paired with a counting semaphore, plus
// the cooked-mode editing state (the in-progress line) reading builds
// up before it is handed to a caller.
type TTY struct {
	in, out       *FIFO
	inSem, outSem *ksync.Semaphore
	backend       ConsoleBackend

	Echo bool
	CRLF bool // translate outgoing '\n' to "\r\n"

	line    []byte
	lineLen int
}

// NewTTY builds a TTY with fixed-capacity FIFOs, output semantics
// defaulting to cooked mode with echo and NL->CRLF translation on.
func NewTTY(backend ConsoleBackend) *TTY {
	return &TTY{
		in:      NewFIFO(fifoCapacity),
		out:     NewFIFO(fifoCapacity),
		inSem:   ksync.NewSemaphore(0),
		outSem:  ksync.NewSemaphore(fifoCapacity),
		backend: backend,
		Echo:    true,
		CRLF:    true,
		line:    make([]byte, lineCapacity),
	}
}

// Write implements spec.md §4.7's writer semantics: for each source
// byte, wait for a free output slot, put the byte (preceded by '\r'
// if it is '\n' and CRLF translation is on), and drain it to the
// backend.
func (t *TTY) Write(data []byte) (int, error) {
	for _, b := range data {
		if b == nl && t.CRLF {
			t.emit(cr)
		}
		t.emit(b)
	}
	return len(data), nil
}

func (t *TTY) emit(b byte) {
	t.outSem.Wait()
	t.out.put(b)
	if c, ok := t.out.get(); ok {
		t.backend.WriteByte(c)
	}
	t.outSem.Notify()
}

// Read implements spec.md §4.7's cooked-mode reader: pull bytes one
// at a time from the input FIFO (blocking on the semaphore when
// empty), apply DEL erase and echo, and terminate the line on CR or
// LF. The completed line (including its terminator, translated to a
// single '\n') is copied into buf, truncated to its capacity.
func (t *TTY) Read(buf []byte) (int, error) {
	for {
		t.inSem.Wait()
		b, ok := t.in.get()
		if !ok {
			continue
		}

		if b == del {
			if t.lineLen > 0 {
				t.lineLen--
				if t.Echo {
					t.Write([]byte{bs, ' ', bs})
				}
			}
			continue
		}

		if t.Echo {
			if b == cr || b == nl {
				t.Write([]byte{nl})
			} else {
				t.Write([]byte{b})
			}
		}

		if b == cr || b == nl {
			n := copy(buf, t.line[:t.lineLen])
			if n < len(buf) {
				buf[n] = nl
				n++
			}
			t.lineLen = 0
			return n, nil
		}

		if t.lineLen < len(t.line) {
			t.line[t.lineLen] = b
			t.lineLen++
		}
	}
}

// TTYIn is the keyboard-interrupt entry point (spec.md §4.7): append
// byte to the currently focused TTY's input FIFO and signal its input
// semaphore.
func (r *Registry) TTYIn(b byte) {
	tty := r.ttys[r.focus]
	if tty.in.put(b) {
		tty.inSem.Notify()
	}
}

// Select switches keyboard focus to TTY i.
func (r *Registry) Select(i int) {
	if i >= 0 && i < len(r.ttys) {
		r.focus = i
	}
}

// Registry owns the N TTYs and tracks which one is focused for
// keyboard input; it is also the driver Register wires under the TTY
// major number, dispatching by minor to the corresponding *TTY.
type Registry struct {
	ttys  []*TTY
	focus int
}

// NewRegistry builds n TTYs, each draining to backend(i).
func NewRegistry(n int, backend func(i int) ConsoleBackend) *Registry {
	r := &Registry{ttys: make([]*TTY, n)}
	for i := range r.ttys {
		r.ttys[i] = NewTTY(backend(i))
	}
	return r
}

func (r *Registry) Open(minor int) error { return nil }

func (r *Registry) Read(minor int, buf []byte) (int, error) {
	return r.ttys[minor].Read(buf)
}

func (r *Registry) Write(minor int, buf []byte) (int, error) {
	return r.ttys[minor].Write(buf)
}

func (r *Registry) Control(minor int, cmd int, args ...uint32) (int, error) {
	switch cmd {
	case CtlSetEcho:
		r.ttys[minor].Echo = len(args) > 0 && args[0] != 0
	case CtlSetCRLF:
		r.ttys[minor].CRLF = len(args) > 0 && args[0] != 0
	}
	return 0, nil
}

func (r *Registry) Close(minor int) error { return nil }

// TTY ioctl command ids, local to this driver.
const (
	CtlSetEcho = iota
	CtlSetCRLF
)
