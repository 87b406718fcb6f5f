package trap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameFromUserMode(t *testing.T) {
	kernel := &Frame{CS: 0x08}
	user := &Frame{CS: 0x1B} // RPL 3

	assert.False(t, kernel.FromUserMode())
	assert.True(t, user.FromUserMode())
}

func TestDecodeGPBits(t *testing.T) {
	f := &Frame{ErrorCode: (5 << 3) | 2 | 1} // index 5, IDT, external
	info := DecodeGP(f)

	assert.True(t, info.External)
	assert.True(t, info.IsIDT)
	assert.Equal(t, uint32(5), info.Index)
}

func TestDecodeGPNonExternalGDT(t *testing.T) {
	f := &Frame{ErrorCode: 3 << 3}
	info := DecodeGP(f)

	assert.False(t, info.External)
	assert.False(t, info.IsIDT)
	assert.Equal(t, uint32(3), info.Index)
}

func TestDecodePFErrorCodeBits(t *testing.T) {
	f := &Frame{ErrorCode: 0b111} // present, write, user
	info := DecodePF(f)

	assert.True(t, info.Protect)
	assert.True(t, info.Write)
	assert.True(t, info.User)
}

func TestDecodePFNotPresentSupervisorRead(t *testing.T) {
	f := &Frame{ErrorCode: 0}
	info := DecodePF(f)

	assert.False(t, info.Protect)
	assert.False(t, info.Write)
	assert.False(t, info.User)
}

func TestInstallAndDispatchRoutesToRegisteredHandler(t *testing.T) {
	var got *Frame
	Install(99, func(f *Frame) { got = f })
	defer Install(99, nil)

	f := &Frame{Vector: 99}
	Dispatch(f)

	assert.Same(t, f, got)
}

func TestDispatchFallsBackToExitFuncForUnregisteredUserVector(t *testing.T) {
	var gotStatus int32 = -1
	SetExitFunc(func(status int32) { gotStatus = status })
	defer SetExitFunc(nil)

	f := &Frame{Vector: 200, CS: 0x1B, ErrorCode: 0x42}
	Dispatch(f)

	assert.Equal(t, int32(0x42), gotStatus)
}
