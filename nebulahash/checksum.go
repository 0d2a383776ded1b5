package nebulahash

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

// Size is the byte length of a Checksum.
const Size = highwayhash.Size

// Checksum is a keyed digest of a channel's counters and accounting
// fields, used to compare two raw-results files without a byte-level
// diff.
type Checksum = [Size]byte

var zeroKey Checksum

// ChecksumBuffer hashes a single channel's completed-iteration count,
// max value and counter data. Two buffers with identical contents
// produce identical checksums regardless of how they were assembled
// (direct accumulation vs. merge).
func ChecksumBuffer(width, height int, completedIterations uint64, maxValue uint32, data []uint32) Checksum {
	buf := make([]byte, 8+4+4*len(data))
	binary.LittleEndian.PutUint64(buf[0:8], completedIterations)
	binary.LittleEndian.PutUint32(buf[8:12], maxValue)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[12+4*i:], v)
	}
	return highwayhash.Sum(buf, zeroKey[:])
}

// CombineChecksums folds a named checksum into a running digest, so that
// a whole collection's checksum is independent of channel iteration
// order but still sensitive to which names are present.
func CombineChecksums(running Checksum, name string, cs Checksum) Checksum {
	buf := make([]byte, len(name)+Size)
	copy(buf, name)
	copy(buf[len(name):], cs[:])
	combined := highwayhash.Sum(buf, zeroKey[:])
	for i := range running {
		combined[i] ^= running[i]
	}
	return combined
}
