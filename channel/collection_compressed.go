package channel

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// SaveFileCompressed writes the collection in the same record layout as
// SaveFile, wrapped in gzip. It is an additive convenience for archival;
// the primary, byte-exact format used for interchange remains SaveFile.
func (c *Collection) SaveFileCompressed(ctx context.Context, path string) error {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "channel: creating compressed raw results file", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("channel: closing %s: %v", path, cerr)
		}
	}()
	gw := gzip.NewWriter(f.Writer(ctx))
	if err := c.writeTo(gw); err != nil {
		return errors.E(err, "channel: writing compressed raw results file", path)
	}
	if err := gw.Close(); err != nil {
		return errors.E(err, "channel: flushing compressed raw results file", path)
	}
	log.Debug.Printf("channel: saved compressed raw results file %s (%d channels)", path, len(c.channels))
	return nil
}

// LoadFileCompressed is the gzip counterpart to LoadFile, with the same
// merge and error semantics.
func (c *Collection) LoadFileCompressed(ctx context.Context, path string) error {
	f, err := file.Open(ctx, path)
	if err != nil {
		return errors.E(err, "channel: opening compressed raw results file", path)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("channel: closing %s: %v", path, cerr)
		}
	}()
	gr, err := gzip.NewReader(f.Reader(ctx))
	if err != nil {
		return errors.E(ErrCorruptInput, err, "channel: opening gzip stream", path)
	}
	defer gr.Close()
	return c.readFrom(gr, path)
}
