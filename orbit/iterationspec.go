// Package orbit implements the single-threaded Monte-Carlo orbit sampler:
// given a (inner function, inner-iteration count, viewport) configuration,
// it finds escaping candidate points and plots their orbit into a density
// buffer.
package orbit

import "math"

// Func is a caller-supplied iterated map. It must be pure and
// allocation-free on the hot path; implementations live in package
// innerfn.
type Func func(z, c complex128) complex128

// IterationSpec describes one channel's rendering workload: how deep to
// iterate each candidate, how many orbits to accumulate, which function
// drives the iteration, and a relative cost weight used for job
// planning.
type IterationSpec struct {
	InnerIterations int
	OrbitCount      uint64
	Fn              Func
	CostWeight      float64
}

// Valid reports whether the spec can ever produce an escaping orbit.
// Orbits with fewer than two inner steps can never escape, so the
// scheduler refuses them outright.
func (s IterationSpec) Valid() bool {
	return s.InnerIterations >= 2
}

// Cost estimates the relative work of rendering this spec, weighing the
// linear cost of each orbit against the super-linear chance that deeper
// orbits retain more samples.
func (s IterationSpec) Cost() float64 {
	depth := float64(s.InnerIterations)
	return s.CostWeight * float64(s.OrbitCount) * (depth + 128*math.Pow(2, depth/1024))
}
