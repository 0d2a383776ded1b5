package main

import (
	"fmt"

	"github.com/grailbio/nebulabrot/imagesched"
	"github.com/grailbio/nebulabrot/innerfn"
	"github.com/grailbio/nebulabrot/orbit"
)

// innerFuncs maps the -channels flag's function names to concrete
// iterated maps. Callers who need a function not listed here must link
// it in themselves; the CLI only knows about the examples in innerfn.
var innerFuncs = map[string]orbit.Func{
	"mandelbrot":  innerfn.Mandelbrot,
	"burningship": innerfn.BurningShip,
	"tricorn":     innerfn.Tricorn,
}

func lookupInnerFunc(name string) (orbit.Func, error) {
	fn, ok := innerFuncs[name]
	if !ok {
		return nil, fmt.Errorf("unknown inner function %q (want one of mandelbrot, burningship, tricorn)", name)
	}
	return fn, nil
}

// pixelKernels maps the -images flag's kernel names to concrete
// PixelKernel implementations. "grayscale" expects exactly one input
// channel; "rgb" expects exactly three, packed into the R, G and B
// bytes of the output word with alpha fixed at 0xff.
var pixelKernels = map[string]imagesched.PixelKernel{
	"grayscale": grayscaleKernel,
	"rgb":       rgbKernel,
}

func clampByte(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint32(v)
}

func grayscaleKernel(values []float64) uint32 {
	g := clampByte(values[0] * 255)
	return g | g<<8 | g<<16 | 0xff<<24
}

func rgbKernel(values []float64) uint32 {
	r := clampByte(values[0] * 255)
	g := clampByte(values[1] * 255)
	b := clampByte(values[2] * 255)
	return r | g<<8 | b<<16 | 0xff<<24
}

func lookupPixelKernel(name string) (imagesched.PixelKernel, error) {
	k, ok := pixelKernels[name]
	if !ok {
		return nil, fmt.Errorf("unknown image kernel %q (want one of grayscale, rgb)", name)
	}
	return k, nil
}
