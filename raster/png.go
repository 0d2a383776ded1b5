package raster

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// toImage expands the packed RGBA buffer into a standard library
// image.RGBA for encoding. Each packed word is interpreted as four
// little-endian bytes in (R, G, B, A) order, matching the byte layout a
// compositing kernel writes when it returns a uint32 built as
// R | G<<8 | B<<16 | A<<24.
func (b *Buffer) toImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for i, v := range b.data {
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0] = byte(v)
		px[1] = byte(v >> 8)
		px[2] = byte(v >> 16)
		px[3] = byte(v >> 24)
	}
	return img
}

// SavePNG encodes b and writes it to path, resolving filename collisions
// by appending underscores to the end of path (after the extension)
// until a free name is found — matching the reference encoder's
// collision policy. It returns
// the path actually written.
func SavePNG(ctx context.Context, b *Buffer, path string) (string, error) {
	actual := path
	for fileExists(ctx, actual) {
		actual += "_"
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, b.toImage()); err != nil {
		return "", errors.E(err, "raster: encoding PNG", actual)
	}

	f, err := file.Create(ctx, actual)
	if err != nil {
		return "", errors.E(err, "raster: creating PNG file", actual)
	}
	defer func() {
		if cerr := f.Close(ctx); cerr != nil {
			log.Error.Printf("raster: closing %s: %v", actual, cerr)
		}
	}()
	if _, err := f.Writer(ctx).Write(buf.Bytes()); err != nil {
		return "", errors.E(err, "raster: writing PNG file", actual)
	}
	log.Debug.Printf("raster: saved image %s", actual)
	return actual, nil
}

func fileExists(ctx context.Context, path string) bool {
	f, err := file.Open(ctx, path)
	if err != nil {
		return false
	}
	f.Close(ctx)
	return true
}
