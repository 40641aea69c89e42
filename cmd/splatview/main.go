// Command splatview renders a Gaussian splat PLY file along a camera path
// into a sequence of PNG frames.
//
// Usage:
//
//	splatview -in scene.ply -out frames/%04d.png
//	splatview -config job.toml -gpu -watch
//
// A job file (TOML or YAML) sets everything; flags given on the command
// line override it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/gsplat"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "splatview:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("splatview", flag.ContinueOnError)
	config := fs.String("config", "", "job file (.toml, .yaml or .yml)")
	in := fs.String("in", "", "input PLY file")
	out := fs.String("out", "", "output PNG pattern, e.g. frames/%04d.png")
	width := fs.Int("width", 0, "frame width in pixels")
	height := fs.Int("height", 0, "frame height in pixels")
	fps := fs.Float64("fps", 0, "frames per second of camera path sampling")
	useGPU := fs.Bool("gpu", false, "render on the GPU when available")
	watchFiles := fs.Bool("watch", false, "re-render when the job or input changes")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gsplat.SetLogger(logger)

	load := func() (Job, error) {
		job := DefaultJob()
		if *config != "" {
			var err error
			if job, err = LoadJob(*config); err != nil {
				return job, err
			}
		}
		// Only flags present on the command line override the job.
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "in":
				job.Input = *in
			case "out":
				job.Output = *out
			case "width":
				job.Width = *width
			case "height":
				job.Height = *height
			case "fps":
				job.FPS = float32(*fps)
			case "gpu":
				job.GPU = *useGPU
			}
		})
		return job, nil
	}

	job, err := load()
	if err != nil {
		return err
	}
	s := newSession(openDevice(&job))
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	once := func(job Job) error {
		start := time.Now()
		n, err := s.render(ctx, &job)
		if err != nil {
			return err
		}
		slog.Info("rendered", "frames", n, "elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	}
	if !*watchFiles {
		return once(job)
	}

	if err := once(job); err != nil {
		slog.Error("render failed", "err", err)
	}
	return watch(ctx, []string{*config, job.Input}, func() {
		job, err := load()
		if err == nil {
			err = once(job)
		}
		if err != nil {
			slog.Error("render failed", "err", err)
		}
	})
}
