package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivisorForDefaultTickMatchesHandCalculation(t *testing.T) {
	// 1.193182 MHz / 100 Hz (10ms tick) ~= 11931
	assert.Equal(t, uint16(BaseFrequency/100), divisorFor(10))
}

func TestDivisorForClampsToUint16Range(t *testing.T) {
	got := divisorFor(1000) // 1 Hz would overflow a 16-bit reload value
	assert.LessOrEqual(t, got, uint16(0xFFFF))
}

func TestDivisorForNeverZero(t *testing.T) {
	got := divisorFor(1)
	assert.NotZero(t, got)
}
