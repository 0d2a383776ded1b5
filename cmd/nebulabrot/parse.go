package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/nebulabrot/imagesched"
	"github.com/grailbio/nebulabrot/orbit"
)

// parseChannelSpecs parses the -channels flag: a semicolon-separated
// list of "name:fn:innerIterations:orbitCount:costWeight" entries, e.g.
//
//	"red:mandelbrot:64:2000000:1;blue:burningship:48:2000000:1"
func parseChannelSpecs(raw string) (map[string]orbit.IterationSpec, error) {
	specs := make(map[string]orbit.IterationSpec)
	if raw == "" {
		return specs, nil
	}
	for _, entry := range strings.Split(raw, ";") {
		fields := strings.Split(entry, ":")
		if len(fields) != 5 {
			return nil, fmt.Errorf("channel spec %q: want name:fn:innerIterations:orbitCount:costWeight", entry)
		}
		name := fields[0]
		fn, err := lookupInnerFunc(fields[1])
		if err != nil {
			return nil, fmt.Errorf("channel %q: %v", name, err)
		}
		innerIter, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("channel %q: inner iterations: %v", name, err)
		}
		orbitCount, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("channel %q: orbit count: %v", name, err)
		}
		costWeight, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("channel %q: cost weight: %v", name, err)
		}
		specs[name] = orbit.IterationSpec{
			InnerIterations: innerIter,
			OrbitCount:      orbitCount,
			Fn:              fn,
			CostWeight:      costWeight,
		}
	}
	return specs, nil
}

// parseImageSpecs parses the -images flag: a semicolon-separated list
// of "filename:kernel:channel1|channel2|...:desiredMax1|desiredMax2|...:costWeight"
// entries. The desiredMax field may be empty to disable per-channel
// normalization targets, e.g.
//
//	"out:grayscale:red::1;rgb-out:rgb:red|green|blue:1000|1000|1000:3"
func parseImageSpecs(raw string) (map[string]imagesched.Spec, error) {
	specs := make(map[string]imagesched.Spec)
	if raw == "" {
		return specs, nil
	}
	for _, entry := range strings.Split(raw, ";") {
		fields := strings.Split(entry, ":")
		if len(fields) != 5 {
			return nil, fmt.Errorf("image spec %q: want filename:kernel:channels:desiredMax:costWeight", entry)
		}
		filename := fields[0]
		kernel, err := lookupPixelKernel(fields[1])
		if err != nil {
			return nil, fmt.Errorf("image %q: %v", filename, err)
		}
		channelNames := strings.Split(fields[2], "|")
		var desiredMax []float64
		if fields[3] != "" {
			for _, s := range strings.Split(fields[3], "|") {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("image %q: desired max: %v", filename, err)
				}
				desiredMax = append(desiredMax, v)
			}
		}
		costWeight, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("image %q: cost weight: %v", filename, err)
		}
		specs[filename] = imagesched.Spec{
			ChannelNames: channelNames,
			DesiredMax:   desiredMax,
			CostWeight:   costWeight,
			Mode:         imagesched.ModePixel,
			Pixel:        kernel,
		}
	}
	return specs, nil
}
