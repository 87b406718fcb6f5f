package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct{ written []byte }

func (b *fakeBackend) WriteByte(c byte) { b.written = append(b.written, c) }

// feed queues every byte of s into tty's input FIFO and signals the
// semaphore via Notify's non-blocking increment path, so Read never
// needs a registered scheduler (every byte is already available by
// the time Read consumes it).
func feed(tty *TTY, s string) {
	for i := 0; i < len(s); i++ {
		tty.in.put(s[i])
		tty.inSem.Notify()
	}
}

func TestTTYReadStopsAtNewlineAndAppendsOne(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	feed(tty, "hi\n")

	buf := make([]byte, 32)
	n, err := tty.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(buf[:n]))
}

func TestTTYReadTerminatesOnCRToo(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	feed(tty, "ok\r")

	buf := make([]byte, 32)
	n, err := tty.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(buf[:n]))
}

func TestTTYReadAppliesDELErase(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	feed(tty, "hx\x7fi\n") // h, x, <erase x>, i, \n -> "hi\n"

	buf := make([]byte, 32)
	n, err := tty.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(buf[:n]))
}

func TestTTYReadEraseOnEmptyLineIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	feed(tty, "\x7fa\n")

	buf := make([]byte, 32)
	n, err := tty.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(buf[:n]))
}

func TestTTYWriteTranslatesNLToCRLFWhenEnabled(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	tty.Echo = false
	tty.CRLF = true

	_, err := tty.Write([]byte("ab\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ab\r\n"), backend.written)
}

func TestTTYWriteLeavesNLAloneWhenCRLFDisabled(t *testing.T) {
	backend := &fakeBackend{}
	tty := NewTTY(backend)
	tty.CRLF = false

	_, err := tty.Write([]byte("ab\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ab\n"), backend.written)
}

func TestRegistrySelectSwitchesFocus(t *testing.T) {
	backend := &fakeBackend{}
	r := NewRegistry(2, func(int) ConsoleBackend { return backend })

	r.Select(1)
	r.TTYIn('z')

	b, ok := r.ttys[1].in.get()
	require.True(t, ok)
	assert.Equal(t, byte('z'), b)

	_, ok = r.ttys[0].in.get()
	assert.False(t, ok)
}
