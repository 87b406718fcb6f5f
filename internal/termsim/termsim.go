// Package termsim is a host-only harness: it puts the invoking
// terminal into raw mode and pipes keystrokes into an
// internal/device.TTY, so the cooked-mode line discipline can be
// exercised interactively from a host machine without booting the
// kernel in a VM.
package termsim

import (
	"os"

	"golang.org/x/term"

	"github.com/octane-os/octane32/internal/device"
)

// Session owns the raw-mode terminal state so Close can always
// restore it, even if the caller's read loop exits abnormally.
type Session struct {
	fd       int
	oldState *term.State
	reg      *device.Registry
}

// Start puts fd (normally os.Stdin.Fd()) into raw mode and returns a
// Session feeding bytes read from it into reg's TTY 0.
func Start(fd int, reg *device.Registry) (*Session, error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &Session{fd: fd, oldState: old, reg: reg}, nil
}

// Close restores the terminal's original mode. Safe to call once;
// callers should defer it immediately after Start succeeds.
func (s *Session) Close() error {
	return term.Restore(s.fd, s.oldState)
}

// Pump reads from the file backing fd until EOF or an error,
// forwarding every byte into the TTY's input FIFO via TTYIn, the same
// path a keyboard IRQ handler would feed in a real boot.
func (s *Session) Pump(f *os.File) error {
	buf := make([]byte, 64)
	for {
		n, err := f.Read(buf)
		for i := 0; i < n; i++ {
			s.reg.TTYIn(buf[i])
		}
		if err != nil {
			return err
		}
	}
}
