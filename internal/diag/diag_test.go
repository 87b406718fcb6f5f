package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octane-os/octane32/internal/sched"
)

func TestDecodeFaultValidInstruction(t *testing.T) {
	// 0xCD 0x80 is "int 0x80".
	s := DecodeFault([]byte{0xCD, 0x80}, 0x1000)
	assert.Contains(t, s, "0x1000")
	assert.Contains(t, s, "int")
}

func TestDecodeFaultUndecodable(t *testing.T) {
	s := DecodeFault(nil, 0x2000)
	assert.Contains(t, s, "undecodable")
}

func TestDumpTaskIncludesPID(t *testing.T) {
	tcb := sched.Task(1)
	s := DumpTask(tcb)
	assert.True(t, strings.Contains(s, "PID"))
}
