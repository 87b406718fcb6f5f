package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These tests call the unexported put/get directly, bypassing the
// cpu.EnterProtection/LeaveProtection wrappers (real CLI/STI, only
// valid at CPL-0 on real 386 hardware) so the ring-buffer arithmetic
// is exercised without touching the CPU, the same boundary drawn in
// internal/sched's test suite.

func TestFIFOFIFOOrder(t *testing.T) {
	f := NewFIFO(4)
	assert.True(t, f.put('a'))
	assert.True(t, f.put('b'))

	b, ok := f.get()
	assert.True(t, ok)
	assert.Equal(t, byte('a'), b)

	b, ok = f.get()
	assert.True(t, ok)
	assert.Equal(t, byte('b'), b)
}

func TestFIFOFullRejectsFurtherPuts(t *testing.T) {
	f := NewFIFO(2)
	assert.True(t, f.put(1))
	assert.True(t, f.put(2))
	assert.False(t, f.put(3))
}

func TestFIFOEmptyGetFails(t *testing.T) {
	f := NewFIFO(2)
	_, ok := f.get()
	assert.False(t, ok)
}

func TestFIFOWrapsAroundRingBoundary(t *testing.T) {
	f := NewFIFO(3)
	f.put(1)
	f.put(2)
	f.get()
	f.put(3)
	f.put(4)

	var got []byte
	for {
		b, ok := f.get()
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, []byte{2, 3, 4}, got)
}
