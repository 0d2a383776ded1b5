package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChannelSpecs(t *testing.T) {
	specs, err := parseChannelSpecs("red:mandelbrot:64:2000000:1;blue:burningship:48:1000000:2")
	assert.NoError(t, err)
	assert.Len(t, specs, 2)
	assert.Equal(t, 64, specs["red"].InnerIterations)
	assert.EqualValues(t, 2000000, specs["red"].OrbitCount)
	assert.Equal(t, 1.0, specs["red"].CostWeight)
	assert.Equal(t, 48, specs["blue"].InnerIterations)
}

func TestParseChannelSpecsEmpty(t *testing.T) {
	specs, err := parseChannelSpecs("")
	assert.NoError(t, err)
	assert.Empty(t, specs)
}

func TestParseChannelSpecsRejectsUnknownFunction(t *testing.T) {
	_, err := parseChannelSpecs("red:nosuchfn:64:10:1")
	assert.Error(t, err)
}

func TestParseChannelSpecsRejectsMalformedEntry(t *testing.T) {
	_, err := parseChannelSpecs("red:mandelbrot:64")
	assert.Error(t, err)
}

func TestParseImageSpecs(t *testing.T) {
	specs, err := parseImageSpecs("out:grayscale:red::1;rgb-out:rgb:red|green|blue:1000|1000|1000:3")
	assert.NoError(t, err)
	assert.Len(t, specs, 2)
	assert.Equal(t, []string{"red"}, specs["out"].ChannelNames)
	assert.Empty(t, specs["out"].DesiredMax)
	assert.Equal(t, []string{"red", "green", "blue"}, specs["rgb-out"].ChannelNames)
	assert.Equal(t, []float64{1000, 1000, 1000}, specs["rgb-out"].DesiredMax)
	assert.Equal(t, 3.0, specs["rgb-out"].CostWeight)
}

func TestParseImageSpecsRejectsUnknownKernel(t *testing.T) {
	_, err := parseImageSpecs("out:nosuchkernel:red::1")
	assert.Error(t, err)
}

func TestSplitNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitNonEmpty("a,b,c", ","))
	assert.Nil(t, splitNonEmpty("", ","))
	assert.Equal(t, []string{"a", "b"}, splitNonEmpty("a,,b,", ","))
}

func TestGrayscaleKernelClamps(t *testing.T) {
	assert.EqualValues(t, 0xff|0xff<<8|0xff<<16|0xff<<24, grayscaleKernel([]float64{5.0}))
	assert.EqualValues(t, 0xff<<24, grayscaleKernel([]float64{-1.0}))
}

func TestRGBKernelPacksChannels(t *testing.T) {
	v := rgbKernel([]float64{1.0, 0.0, 0.5})
	assert.EqualValues(t, 0xff, v&0xff)
	assert.EqualValues(t, 0, (v>>8)&0xff)
	assert.EqualValues(t, 127, (v>>16)&0xff)
	assert.EqualValues(t, 0xff, (v>>24)&0xff)
}
