package raster

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSavePNGRoundTrips(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	b := NewBuffer(2, 2)
	b.Data()[0] = 0x000000ff // R=0xff, rest 0 (little-endian packed)
	b.Data()[1] = 0xff000000 // A=0xff only

	path := filepath.Join(tempDir, "out.png")
	actual, err := SavePNG(ctx, b, path)
	assert.NoError(t, err)
	assert.Equal(t, path, actual)

	f, err := os.Open(actual)
	assert.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	assert.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestSavePNGResolvesCollisions(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	b := NewBuffer(1, 1)
	path := filepath.Join(tempDir, "out.png")

	first, err := SavePNG(ctx, b, path)
	assert.NoError(t, err)
	assert.Equal(t, path, first)

	second, err := SavePNG(ctx, b, path)
	assert.NoError(t, err)
	assert.Equal(t, path+"_", second)
}
