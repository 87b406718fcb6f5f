package syscall

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsToTicksZeroIsZero(t *testing.T) {
	assert.Equal(t, 0, msToTicks(0, 10))
}

func TestMsToTicksBelowOneTickStillSleepsOneTick(t *testing.T) {
	assert.Equal(t, 1, msToTicks(3, 10))
}

func TestMsToTicksExactMultiple(t *testing.T) {
	assert.Equal(t, 5, msToTicks(50, 10))
}

func TestMsToTicksRoundsUp(t *testing.T) {
	assert.Equal(t, 6, msToTicks(51, 10))
}

func TestLookupDeviceNameKnownPath(t *testing.T) {
	major, minor, ok := lookupDeviceName("/dev/tty0")
	assert.True(t, ok)
	assert.Equal(t, ttyMajor, major)
	assert.Equal(t, 0, minor)
}

func TestLookupDeviceNameUnknownPath(t *testing.T) {
	_, _, ok := lookupDeviceName("/dev/nope")
	assert.False(t, ok)
}
