package nebulahash

import (
	"testing"

	"github.com/grailbio/nebulabrot/channel"
	"github.com/stretchr/testify/assert"
)

func TestChecksumBufferIsDeterministic(t *testing.T) {
	data := []uint32{1, 2, 3, 4}
	a := ChecksumBuffer(2, 2, 10, 4, data)
	b := ChecksumBuffer(2, 2, 10, 4, data)
	assert.Equal(t, a, b)
}

func TestChecksumBufferSensitiveToData(t *testing.T) {
	a := ChecksumBuffer(2, 2, 10, 4, []uint32{1, 2, 3, 4})
	b := ChecksumBuffer(2, 2, 10, 4, []uint32{1, 2, 3, 5})
	assert.NotEqual(t, a, b)
}

func TestChecksumCollectionOrderIndependent(t *testing.T) {
	c1 := channel.NewCollection(2, 2)
	red := channel.NewBuffer(2, 2)
	blue := channel.NewBuffer(2, 2)
	red.Data()[0] = 3
	blue.Data()[0] = 9
	c1.Put("red", red)
	c1.Put("blue", blue)

	c2 := channel.NewCollection(2, 2)
	red2 := channel.NewBuffer(2, 2)
	blue2 := channel.NewBuffer(2, 2)
	red2.Data()[0] = 3
	blue2.Data()[0] = 9
	c2.Put("blue", blue2)
	c2.Put("red", red2)

	assert.Equal(t, ChecksumCollection(c1), ChecksumCollection(c2))
}
