package channel

import (
	"context"
	"io"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Collection is an ordered mapping from channel name to Buffer, all
// sharing one resolution. It is the unit the orbit scheduler produces
// and the image scheduler reads from.
type Collection struct {
	width, height int
	channels      map[string]*Buffer
}

// NewCollection creates an empty collection of the given resolution.
func NewCollection(width, height int) *Collection {
	return &Collection{width: width, height: height, channels: make(map[string]*Buffer)}
}

func (c *Collection) Width() int  { return c.width }
func (c *Collection) Height() int { return c.height }

// Get returns the named buffer and whether it exists.
func (c *Collection) Get(name string) (*Buffer, bool) {
	b, ok := c.channels[name]
	return b, ok
}

// Put installs buf under name, which must already have the collection's
// dimensions; it is the caller's responsibility to enforce that
// invariant (NewBuffer(c.Width(), c.Height()) does it naturally).
func (c *Collection) Put(name string, buf *Buffer) {
	c.channels[name] = buf
}

// Names returns the channel names in sorted order, matching the
// iteration order used by SaveFile and Merge.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge folds other's channels into c: channels absent from c are
// copied in, channels present in both are merged with MergeWith and
// have MaxValue refreshed.
func (c *Collection) Merge(other *Collection) {
	for _, name := range other.Names() {
		ob := other.channels[name]
		existing, found := c.channels[name]
		if !found {
			copied := NewBuffer(c.width, c.height)
			copy(copied.data, ob.data)
			copied.completedIterations = ob.completedIterations
			copied.maxValue = ob.maxValue
			c.channels[name] = copied
			continue
		}
		if err := existing.MergeWith(ob); err != nil {
			log.Error.Printf("channel: merging %q: %v", name, err)
			continue
		}
		existing.UpdateMaxValue()
	}
	log.Debug.Printf("channel: merged collection (%d channels)", len(other.channels))
}

// SaveFile writes the collection to path in the byte-exact raw-results
// format: a (width, height) header followed by each channel's name and
// payload, in sorted name order.
func (c *Collection) SaveFile(ctx context.Context, path string) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "channel: creating raw results file", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("channel: closing %s: %v", path, cerr)
		}
	}()
	if err := c.writeTo(f.Writer(ctx)); err != nil {
		return errors.E(err, "channel: writing raw results file", path)
	}
	log.Debug.Printf("channel: saved raw results file %s (%d channels)", path, len(c.channels))
	return nil
}

func (c *Collection) writeTo(w io.Writer) error {
	scratch := make([]byte, sizeFieldBytes)
	if err := writeUint64(w, uint64(c.width), scratch); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(c.height), scratch); err != nil {
		return err
	}
	for _, name := range c.Names() {
		if err := writeUint64(w, uint64(len(name)), scratch); err != nil {
			return err
		}
		if _, err := io.WriteString(w, name); err != nil {
			return err
		}
		if err := c.channels[name].writeTo(w); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a raw-results file written by SaveFile and merges its
// records into c. Loading into a collection that already holds a
// same-named channel merges the counters; loading the same file twice
// doubles every counter.
//
// A resolution mismatch between the file header and c aborts the whole
// load and returns ErrHeaderMismatch. A short read inside a record
// (anything other than a clean EOF between records) aborts the load but
// retains whatever records were already merged, and returns
// ErrCorruptInput.
func (c *Collection) LoadFile(ctx context.Context, path string) error {
	f, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "channel: opening raw results file", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("channel: closing %s: %v", path, cerr)
		}
	}()
	return c.readFrom(f.Reader(ctx), path)
}

// PeekHeader reads just the (width, height) header of a raw-results
// file at path, without loading any channel records. Useful when a
// caller needs to construct a Collection of the right resolution before
// calling LoadFile.
func PeekHeader(ctx context.Context, path string) (width, height int, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return 0, 0, errors.E(err, "channel: opening raw results file", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("channel: closing %s: %v", path, cerr)
		}
	}()
	scratch := make([]byte, sizeFieldBytes)
	r := f.Reader(ctx)
	w, err := readUint64(r, scratch)
	if err != nil {
		return 0, 0, errors.E(err, "channel: reading header", path)
	}
	h, err := readUint64(r, scratch)
	if err != nil {
		return 0, 0, errors.E(err, "channel: reading header", path)
	}
	return int(w), int(h), nil
}

func (c *Collection) readFrom(r io.Reader, path string) error {
	scratch := make([]byte, sizeFieldBytes)
	width, err := readUint64(r, scratch)
	if err != nil {
		return errors.E(err, "channel: reading header", path)
	}
	height, err := readUint64(r, scratch)
	if err != nil {
		return errors.E(err, "channel: reading header", path)
	}
	if int(width) != c.width || int(height) != c.height {
		return errors.E(ErrHeaderMismatch, "channel: loading", path)
	}

	merged := make([]string, 0)
	for {
		nameLen, err := readUint64(r, scratch)
		if err != nil {
			if err == io.EOF {
				break
			}
			return errors.E(ErrCorruptInput, err, "channel: reading record name length", path)
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return errors.E(ErrCorruptInput, err, "channel: reading record name", path)
		}
		name := string(nameBuf)

		buf := NewBuffer(c.width, c.height)
		if err := buf.readInto(r); err != nil {
			return errors.E(ErrCorruptInput, err, "channel: reading record payload", path, name)
		}

		existing, found := c.channels[name]
		if !found {
			c.channels[name] = buf
			merged = append(merged, name)
			continue
		}
		if err := existing.MergeWith(buf); err != nil {
			return errors.E(err, "channel: merging loaded record", path, name)
		}
		existing.UpdateMaxValue()
		merged = append(merged, name+"(merged)")
	}
	log.Debug.Printf("channel: loaded raw results file %s, channels: %v", path, merged)
	return nil
}
