// nebulabrot renders Nebulabrot-style Monte-Carlo fractal density
// channels and composites them into RGBA PNGs.
package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/nebulabrot/channel"
	"github.com/grailbio/nebulabrot/imagesched"
	"github.com/grailbio/nebulabrot/nebulahash"
	"github.com/grailbio/nebulabrot/orbitsched"
	"github.com/grailbio/nebulabrot/progress"
	"v.io/x/lib/cmdline"
)

type renderFlags struct {
	xmid, ymid        float64
	size              float64
	randomRadius      float64
	normLimit         float64
	width, height     int
	threads           int
	channels          string
	images            string
	loadPaths         string
	savePath          string
	compress          bool
}

func newCmdRender() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "render",
		Short: "Render registered channels and composite registered images",
	}
	flags := renderFlags{}
	cmd.Flags.Float64Var(&flags.xmid, "xmid", 0, "Viewport center, real axis")
	cmd.Flags.Float64Var(&flags.ymid, "ymid", 0, "Viewport center, imaginary axis")
	cmd.Flags.Float64Var(&flags.size, "size", 4, "Viewport width, in complex-plane units")
	cmd.Flags.Float64Var(&flags.randomRadius, "random-radius", 2, "Radius of the disc candidate points are sampled from")
	cmd.Flags.Float64Var(&flags.normLimit, "norm-limit", 1e8, "Escape threshold: |z| above this is considered escaped")
	cmd.Flags.IntVar(&flags.width, "width", 800, "Output image width in pixels")
	cmd.Flags.IntVar(&flags.height, "height", 800, "Output image height in pixels")
	cmd.Flags.IntVar(&flags.threads, "threads", runtime.NumCPU(), "Number of rendering worker threads")
	cmd.Flags.StringVar(&flags.channels, "channels", "", `Semicolon-separated "name:fn:innerIterations:orbitCount:costWeight" entries`)
	cmd.Flags.StringVar(&flags.images, "images", "", `Semicolon-separated "filename:kernel:channels:desiredMax:costWeight" entries`)
	cmd.Flags.StringVar(&flags.loadPaths, "load", "", "Comma-separated raw-results files to merge into the rendered channels before saving and compositing")
	cmd.Flags.StringVar(&flags.savePath, "save", "nebulabrot.raw", "Path to write the raw-results file to")
	cmd.Flags.BoolVar(&flags.compress, "compress", false, "Gzip the raw-results file")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return render(vcontext.Background(), flags)
	})
	return cmd
}

func render(ctx context.Context, flags renderFlags) error {
	channelSpecs, err := parseChannelSpecs(flags.channels)
	if err != nil {
		return err
	}
	imageSpecs, err := parseImageSpecs(flags.images)
	if err != nil {
		return err
	}

	sink := progress.LogSink{}
	mgr := orbitsched.New(orbitsched.Config{
		Xmid: flags.xmid, Ymid: flags.ymid,
		Size: flags.size, RandomRadius: flags.randomRadius, NormLimit: flags.normLimit,
		Width: flags.width, Height: flags.height,
		NumThreads: flags.threads,
		Sink:       sink,
	})
	for name, spec := range channelSpecs {
		if err := mgr.Add(name, spec); err != nil {
			return fmt.Errorf("registering channel %q: %v", name, err)
		}
	}

	result, err := mgr.Execute()
	if err != nil {
		return fmt.Errorf("rendering channels: %v", err)
	}

	for _, path := range splitNonEmpty(flags.loadPaths, ",") {
		if err := result.LoadFile(ctx, path); err != nil {
			return fmt.Errorf("loading %q: %v", path, err)
		}
	}

	if flags.compress {
		err = result.SaveFileCompressed(ctx, flags.savePath)
	} else {
		err = result.SaveFile(ctx, flags.savePath)
	}
	if err != nil {
		return fmt.Errorf("saving %q: %v", flags.savePath, err)
	}
	log.Printf("saved raw results to %s", flags.savePath)

	if len(imageSpecs) == 0 {
		return nil
	}
	imgMgr := imagesched.New(flags.threads, sink)
	for filename, spec := range imageSpecs {
		if err := imgMgr.Add(filename, spec); err != nil {
			return fmt.Errorf("registering image %q: %v", filename, err)
		}
	}
	saved, err := imgMgr.Execute(ctx, result)
	if err != nil {
		return fmt.Errorf("compositing images: %v", err)
	}
	for _, sf := range saved {
		if sf.Failed {
			log.Error.Printf("image %q failed", sf.Filename)
			continue
		}
		log.Printf("wrote %s", sf.Path)
	}
	return nil
}

func newCmdChecksum() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "checksum",
		Short:    "Compare the checksums of two raw-results files",
		ArgsName: "path1 path2",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("checksum takes two paths, got %v", argv)
		}
		return checksumCompare(vcontext.Background(), argv[0], argv[1])
	})
	return cmd
}

func checksumCompare(ctx context.Context, path1, path2 string) error {
	cs1, err := checksumFile(ctx, path1)
	if err != nil {
		return err
	}
	cs2, err := checksumFile(ctx, path2)
	if err != nil {
		return err
	}
	if cs1 == cs2 {
		fmt.Printf("%s and %s match\n", path1, path2)
		return nil
	}
	return fmt.Errorf("%s and %s differ", path1, path2)
}

func checksumFile(ctx context.Context, path string) (nebulahash.Checksum, error) {
	// The collection's resolution is unknown ahead of time, so probe the
	// header directly rather than guess a width/height.
	width, height, err := channel.PeekHeader(ctx, path)
	if err != nil {
		return nebulahash.Checksum{}, fmt.Errorf("reading %q: %v", path, err)
	}
	c := channel.NewCollection(width, height)
	if err := c.LoadFile(ctx, path); err != nil {
		return nebulahash.Checksum{}, fmt.Errorf("loading %q: %v", path, err)
	}
	for _, name := range c.Names() {
		buf, _ := c.Get(name)
		buf.UpdateMaxValue()
	}
	return nebulahash.ChecksumCollection(c), nil
}

func splitNonEmpty(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || string(raw[i]) == sep {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func main() {
	cleanup := grail.Init()
	defer cleanup()

	go func() {
		var m runtime.MemStats
		for {
			time.Sleep(5 * time.Second)
			runtime.ReadMemStats(&m)
			log.Debug.Printf("nebulabrot: alloc=%d sys=%d", m.Alloc, m.Sys)
		}
	}()

	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "nebulabrot",
		Short: "Nebulabrot fractal density renderer",
		Children: []*cmdline.Command{
			newCmdRender(),
			newCmdChecksum(),
		},
	})
}
