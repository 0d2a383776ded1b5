package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferMergeWithIsAdditive(t *testing.T) {
	a := NewBuffer(4, 4)
	b := NewBuffer(4, 4)
	a.data[0] = 5
	a.data[1] = 2
	b.data[0] = 3
	b.data[1] = 1
	b.data[2] = 9
	a.AddCompletedIterations(10)
	b.AddCompletedIterations(7)

	assert.NoError(t, a.MergeWith(b))
	assert.EqualValues(t, 8, a.data[0])
	assert.EqualValues(t, 3, a.data[1])
	assert.EqualValues(t, 9, a.data[2])
	assert.EqualValues(t, 17, a.CompletedIterations())
}

func TestBufferMergeWithDimensionMismatch(t *testing.T) {
	a := NewBuffer(4, 4)
	b := NewBuffer(2, 2)
	assert.Equal(t, ErrDimensionMismatch, a.MergeWith(b))
}

func TestBufferUpdateMaxValue(t *testing.T) {
	b := NewBuffer(3, 3)
	b.data[0] = 4
	b.data[4] = 17
	b.data[8] = 9
	assert.EqualValues(t, 0, b.MaxValue())
	b.UpdateMaxValue()
	assert.EqualValues(t, 17, b.MaxValue())
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(2, 2)
	b.data[0], b.data[1], b.data[2], b.data[3] = 1, 2, 3, 4
	b.Clear()
	for _, v := range b.data {
		assert.EqualValues(t, 0, v)
	}
}

func TestBufferAt(t *testing.T) {
	b := NewBuffer(3, 2)
	b.data[1*3+2] = 42
	assert.EqualValues(t, 42, b.At(2, 1))
}
