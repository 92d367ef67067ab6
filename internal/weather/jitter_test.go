package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandJitterBounds(t *testing.T) {
	j := NewRandJitter(42)
	for i := 0; i < 1000; i++ {
		n := j.Int(-2, 2)
		assert.GreaterOrEqual(t, n, -2)
		assert.LessOrEqual(t, n, 2)

		f := j.Float(-1, 1)
		assert.GreaterOrEqual(t, f, -1.0)
		assert.LessOrEqual(t, f, 1.0)
	}
	assert.Equal(t, 3, j.Int(3, 3))
}

func TestRandJitterSeeded(t *testing.T) {
	a, b := NewRandJitter(7), NewRandJitter(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Int(0, 100), b.Int(0, 100))
	}
}
