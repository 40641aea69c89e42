package main

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpu"
	"github.com/gogpu/gsplat/gpucore"
	"github.com/gogpu/gsplat/internal/cache"
	"github.com/gogpu/gsplat/render"
)

// openDevice returns the GPU device when asked for and available, the
// memory device otherwise.
func openDevice(job *Job) gpucore.Device {
	if job.GPU {
		var opts []gpu.Option
		if job.SPIRV {
			opts = append(opts, gpu.WithSPIRV())
		}
		dev, err := gpu.Open(opts...)
		if err == nil {
			slog.Info("using GPU device", "name", dev.Name())
			return dev
		}
		slog.Warn("GPU unavailable, rendering on the CPU", "err", err)
	}
	return gpucore.NewMemoryDevice()
}

// cloudBudget bounds the GPU mirror bytes of clouds kept between runs.
const cloudBudget = 1 << 30

// cloudKey identifies one version of a PLY file on disk.
type cloudKey struct {
	path string
	size int64
	mod  time.Time
}

// session holds what survives between watch-mode runs: the device and the
// decoded clouds.
type session struct {
	dev    gpucore.Device
	clouds *cache.Cache[cloudKey, *gsplat.Cloud]
}

func newSession(dev gpucore.Device) *session {
	return &session{
		dev: dev,
		clouds: cache.New[cloudKey, *gsplat.Cloud](cloudBudget,
			func(c *gsplat.Cloud) uint64 { return c.BufferBytes() },
			func(k cloudKey, c *gsplat.Cloud) {
				slog.Debug("cloud evicted", "path", k.path)
				c.ReleaseBuffer()
			}),
	}
}

// load returns the cloud stored at path, decoding it only when the file
// changed since the last call.
func (s *session) load(path string) (*gsplat.Cloud, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	key := cloudKey{path: abs, size: fi.Size(), mod: fi.ModTime()}
	return s.clouds.GetOrCreate(key, func() (*gsplat.Cloud, error) {
		cloud := gsplat.NewCloud()
		if err := cloud.LoadPLY(path); err != nil {
			return nil, err
		}
		slog.Info("loaded cloud", "path", path, "gaussians", cloud.Len())
		return cloud, nil
	})
}

func (s *session) close() {
	s.clouds.Clear()
	s.dev.Destroy()
}

// render loads the input cloud and writes one PNG per sampled pose. It
// returns the number of frames written.
func (s *session) render(ctx context.Context, job *Job) (int, error) {
	if err := job.Validate(); err != nil {
		return 0, err
	}
	cloud, err := s.load(job.Input)
	if err != nil {
		return 0, err
	}
	dev := s.dev

	path, err := job.Camera.Path(cloud)
	if err != nil {
		return 0, fmt.Errorf("camera: %w", err)
	}
	poses := path.Sample(job.FPS)
	if len(poses) > 1 && !strings.Contains(job.Output, "%") {
		return 0, fmt.Errorf("output %q needs a frame number verb for %d frames", job.Output, len(poses))
	}
	if err := os.MkdirAll(filepath.Dir(frameName(job.Output, 0)), 0o755); err != nil {
		return 0, err
	}

	r := render.NewRenderer(job.RenderConfig(), render.WithWorkers(job.Render.Workers))
	defer r.Close()
	if err := r.Initialize(dev); err != nil {
		return 0, err
	}

	target := render.NewPixmapTarget(job.Width, job.Height)
	cam := render.NewCamera()
	bg := background(job.Background)
	for i, pose := range poses {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		cam.SetPosition(pose.Position)
		cam.LookAt(pose.Target)
		cam.SetFOV(pose.FOV)

		target.Clear(bg)
		cmd, err := dev.NewCommandBuffer(fmt.Sprintf("frame %d", i))
		if err != nil {
			return i, err
		}
		if err := r.Render(cloud, cam.View(), cam.Projection(target.Aspect()), target, cmd); err != nil {
			return i, fmt.Errorf("frame %d: %w", i, err)
		}
		name := frameName(job.Output, i)
		if err := writePNG(name, target); err != nil {
			return i, err
		}
		slog.Debug("frame written", "file", name, "stats", r.Stats().String())
	}
	return len(poses), nil
}

func frameName(pattern string, i int) string {
	if !strings.Contains(pattern, "%") {
		return pattern
	}
	return fmt.Sprintf(pattern, i)
}

func background(c [4]float32) color.RGBA {
	to8 := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return color.RGBA{R: to8(c[0] * c[3]), G: to8(c[1] * c[3]), B: to8(c[2] * c[3]), A: to8(c[3])}
}

func writePNG(name string, target *render.PixmapTarget) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, target.Image())
}
