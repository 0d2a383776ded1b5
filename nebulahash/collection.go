package nebulahash

import (
	"github.com/grailbio/nebulabrot/channel"
)

// ChecksumCollection computes a single checksum for every channel in c,
// combined in a way that does not depend on iteration order.
func ChecksumCollection(c *channel.Collection) Checksum {
	var running Checksum
	for _, name := range c.Names() {
		b, _ := c.Get(name)
		cs := ChecksumBuffer(b.Width(), b.Height(), b.CompletedIterations(), b.MaxValue(), b.Data())
		running = CombineChecksums(running, name, cs)
	}
	return running
}
