// Package innerfn supplies example inner iteration functions for driving
// orbit.Renderer: concrete, allocation-free implementations of a few
// well-known escape-time maps. These are examples a caller can register
// directly; they are not part of the rendering engine's contract.
package innerfn

import (
	"math"
	"math/cmplx"
)

// Mandelbrot is the classical z = z^2 + c map.
func Mandelbrot(z, c complex128) complex128 {
	return z*z + c
}

// BurningShip folds the real and imaginary parts to their absolute
// value before squaring, producing the "burning ship" fractal.
func BurningShip(z, c complex128) complex128 {
	folded := complex(math.Abs(real(z)), math.Abs(imag(z)))
	return folded*folded + c
}

// Tricorn (the "Mandelbar") conjugates z before squaring.
func Tricorn(z, c complex128) complex128 {
	conj := cmplx.Conj(z)
	return conj*conj + c
}
