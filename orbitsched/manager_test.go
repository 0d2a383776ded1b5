package orbitsched

import (
	"testing"

	"github.com/grailbio/nebulabrot/orbit"
	"github.com/grailbio/nebulabrot/progress"
	"github.com/stretchr/testify/assert"
)

func mandelbrot(z, c complex128) complex128 {
	return z*z + c
}

func baseConfig(numThreads int) Config {
	return Config{
		Xmid: 0, Ymid: 0, Size: 8,
		RandomRadius: 4, NormLimit: 256,
		Width: 8, Height: 8,
		NumThreads: numThreads,
		Sink:       progress.NopSink{},
	}
}

func TestAddRejectsDuplicateNames(t *testing.T) {
	m := New(baseConfig(1))
	spec := orbit.IterationSpec{InnerIterations: 16, OrbitCount: 10, Fn: mandelbrot, CostWeight: 1}
	assert.NoError(t, m.Add("a", spec))
	assert.Equal(t, ErrNameConflict, m.Add("a", spec))
}

func TestExecuteSmokeZeroOrbitCount(t *testing.T) {
	m := New(baseConfig(2))
	assert.NoError(t, m.Add("a", orbit.IterationSpec{InnerIterations: 2, OrbitCount: 0, Fn: mandelbrot, CostWeight: 1}))

	result, err := m.Execute()
	assert.NoError(t, err)
	buf, ok := result.Get("a")
	assert.True(t, ok)
	assert.EqualValues(t, 0, buf.CompletedIterations())
	for _, v := range buf.Data() {
		assert.EqualValues(t, 0, v)
	}
}

func TestExecuteDropsInvalidChannels(t *testing.T) {
	m := New(baseConfig(2))
	assert.NoError(t, m.Add("dead", orbit.IterationSpec{InnerIterations: 1, OrbitCount: 100, Fn: mandelbrot, CostWeight: 1}))
	assert.NoError(t, m.Add("alive", orbit.IterationSpec{InnerIterations: 32, OrbitCount: 200, Fn: mandelbrot, CostWeight: 1}))

	result, err := m.Execute()
	assert.NoError(t, err)
	_, ok := result.Get("dead")
	assert.False(t, ok)
	alive, ok := result.Get("alive")
	assert.True(t, ok)
	assert.EqualValues(t, 200, alive.CompletedIterations())
}

func TestExecuteRefusesConcurrentInvocations(t *testing.T) {
	m := New(baseConfig(1))
	assert.NoError(t, m.Add("a", orbit.IterationSpec{InnerIterations: 32, OrbitCount: 5000, Fn: mandelbrot, CostWeight: 1}))

	m.executeMu.Lock()
	m.running = true
	m.executeMu.Unlock()

	_, err := m.Execute()
	assert.Equal(t, ErrAlreadyRunning, err)

	m.executeMu.Lock()
	m.running = false
	m.executeMu.Unlock()
}

func TestExecuteJobPartitionIsExact(t *testing.T) {
	m := New(baseConfig(4))
	assert.NoError(t, m.Add("a", orbit.IterationSpec{InnerIterations: 32, OrbitCount: 10007, Fn: mandelbrot, CostWeight: 1}))
	assert.NoError(t, m.Add("b", orbit.IterationSpec{InnerIterations: 64, OrbitCount: 3001, Fn: mandelbrot, CostWeight: 2}))

	result, err := m.Execute()
	assert.NoError(t, err)
	a, _ := result.Get("a")
	b, _ := result.Get("b")
	assert.EqualValues(t, 10007, a.CompletedIterations())
	assert.EqualValues(t, 3001, b.CompletedIterations())
}

func TestExecuteSingleVsMultiThreadBitwiseEquivalence(t *testing.T) {
	spec := func() orbit.IterationSpec {
		return orbit.IterationSpec{InnerIterations: 48, OrbitCount: 4000, Fn: mandelbrot, CostWeight: 1}
	}

	m1 := New(baseConfig(1))
	assert.NoError(t, m1.Add("a", spec()))
	r1, err := m1.Execute()
	assert.NoError(t, err)

	m8 := New(baseConfig(8))
	assert.NoError(t, m8.Add("a", spec()))
	r8, err := m8.Execute()
	assert.NoError(t, err)

	b1, _ := r1.Get("a")
	b8, _ := r8.Get("a")
	assert.Equal(t, b1.CompletedIterations(), b8.CompletedIterations())
	assert.Equal(t, b1.Data(), b8.Data())
}

func TestExecuteEmptyManagerReturnsEmptyCollection(t *testing.T) {
	m := New(baseConfig(2))
	result, err := m.Execute()
	assert.NoError(t, err)
	assert.Empty(t, result.Names())
}
