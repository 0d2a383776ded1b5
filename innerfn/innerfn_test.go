package innerfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMandelbrotFixedPoint(t *testing.T) {
	got := Mandelbrot(0, 0)
	assert.Equal(t, complex(0, 0), got)
}

func TestBurningShipNonNegativeFold(t *testing.T) {
	got := BurningShip(complex(-1, -1), 0)
	// fold(-1-i) = 1+i, (1+i)^2 = 2i
	assert.Equal(t, complex(0, 2), got)
}

func TestTricornConjugatesBeforeSquaring(t *testing.T) {
	got := Tricorn(complex(0, 1), 0)
	// conj(i) = -i, (-i)^2 = -1
	assert.Equal(t, complex(-1, 0), got)
}
