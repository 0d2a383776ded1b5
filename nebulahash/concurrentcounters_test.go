package nebulahash

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentCountersAdd(t *testing.T) {
	c := NewConcurrentCounters()
	assert.EqualValues(t, 3, c.Add("red", 3))
	assert.EqualValues(t, 5, c.Add("red", 2))
	assert.EqualValues(t, 5, c.Get("red"))
	assert.EqualValues(t, 0, c.Get("blue"))
}

func TestConcurrentCountersConcurrentAdds(t *testing.T) {
	c := NewConcurrentCounters()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add("shared", 1)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 50, c.Get("shared"))
}

func TestConcurrentCountersTotal(t *testing.T) {
	c := NewConcurrentCounters()
	c.Add("a", 3)
	c.Add("b", 4)
	c.Add("c", 5)
	assert.EqualValues(t, 12, c.Total())
}
