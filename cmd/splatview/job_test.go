package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/campath"
)

const tomlJob = `
input = "scene.ply"
output = "out/%03d.png"
width = 320
height = 200
fps = 10.0

[render]
depth_sort = true
supersample = 2
sh_degree = 1
splat_scale = 1.5

[camera]
type = "spiral"
mode = "pingpong"
radius = 4.0
height = 2.0
revolutions = 2.0
duration = 3.0
axis = [0.0, 0.0, 1.0]
`

const yamlJob = `
input: scene.ply
width: 100
camera:
  type: keyframe
  interpolation: catmullrom
  fov: 50
  keyframes:
    - {time: 0, position: [0, 0, 5], target: [0, 0, 0]}
    - {time: 2, position: [5, 0, 0], target: [0, 0, 0], fov: 30}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadJobTOML(t *testing.T) {
	job, err := LoadJob(writeFile(t, "job.toml", tomlJob))
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if job.Input != "scene.ply" || job.Output != "out/%03d.png" || job.Width != 320 || job.Height != 200 || job.FPS != 10 {
		t.Errorf("job = %+v", job)
	}
	if job.Render.Supersample != 2 || job.Render.SHDegree != 1 || job.Render.SplatScale != 1.5 {
		t.Errorf("render = %+v", job.Render)
	}
	// Unset keys keep their defaults.
	if !job.Render.AntiAliasing || job.Background != [4]float32{0, 0, 0, 1} {
		t.Errorf("defaults lost: %+v", job)
	}
	if job.Camera.Axis != (mgl32.Vec3{0, 0, 1}) || job.Camera.Mode != "pingpong" {
		t.Errorf("camera = %+v", job.Camera)
	}

	cfg := job.RenderConfig()
	if !cfg.SphericalHarmonics || cfg.SHDegree != 1 || cfg.Supersample != 2 {
		t.Errorf("RenderConfig = %+v", cfg)
	}
}

func TestLoadJobYAML(t *testing.T) {
	job, err := LoadJob(writeFile(t, "job.yml", yamlJob))
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if job.Width != 100 || job.Height != 480 {
		t.Errorf("size = %dx%d", job.Width, job.Height)
	}
	if len(job.Camera.Keyframes) != 2 || job.Camera.Keyframes[1].Position != (mgl32.Vec3{5, 0, 0}) {
		t.Fatalf("keyframes = %+v", job.Camera.Keyframes)
	}

	p, err := job.Camera.Path(nil)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if p.Type() != campath.TypeKeyframe || p.Interpolation() != campath.CatmullRom {
		t.Errorf("path = %v/%v", p.Type(), p.Interpolation())
	}
	keys := p.Keyframes()
	if keys[0].FOV != 50 || keys[1].FOV != 30 {
		t.Errorf("keyframe FOVs = %v, %v", keys[0].FOV, keys[1].FOV)
	}
}

func TestLoadJobErrors(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"unknown toml key", "a.toml", "colour = 1\n"},
		{"unknown yaml key", "a.yaml", "colour: 1\n"},
		{"bad toml", "a.toml", "width = \n"},
		{"unknown extension", "a.json", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadJob(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("LoadJob succeeded")
			}
		})
	}
	if _, err := LoadJob(filepath.Join(t.TempDir(), "missing.toml")); !os.IsNotExist(err) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Job)
		want   string
	}{
		{"ok", func(*Job) {}, ""},
		{"no input", func(j *Job) { j.Input = "" }, "input"},
		{"no output", func(j *Job) { j.Output = "" }, "output"},
		{"zero width", func(j *Job) { j.Width = 0 }, "size"},
		{"nan fps", func(j *Job) { j.FPS = float32(math.NaN()) }, "fps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := DefaultJob()
			job.Input = "x.ply"
			tt.modify(&job)
			err := job.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestCameraPath(t *testing.T) {
	cloud := gsplat.NewCloudFrom([]gsplat.Gaussian{
		gsplat.NewGaussian(mgl32.Vec3{-1, -1, -1}, 0.1, 1, mgl32.Vec3{1, 1, 1}),
		gsplat.NewGaussian(mgl32.Vec3{3, 1, 1}, 0.1, 1, mgl32.Vec3{1, 1, 1}),
	})

	tests := []struct {
		name    string
		opts    CameraOptions
		want    campath.Type
		wantErr bool
	}{
		{"fitted orbit", CameraOptions{Type: "orbit", Duration: 2}, campath.TypeOrbit, false},
		{"empty type is orbit", CameraOptions{Radius: 3, Duration: 2}, campath.TypeOrbit, false},
		{"spiral", CameraOptions{Type: "Spiral", Radius: 2, Revolutions: 1, Duration: 2}, campath.TypeSpiral, false},
		{"dolly", CameraOptions{Type: "dolly", Points: []mgl32.Vec3{{0, 0, 5}, {0, 0, 2}}, Duration: 1}, campath.TypeDolly, false},
		{"short dolly", CameraOptions{Type: "dolly", Points: []mgl32.Vec3{{0, 0, 5}}}, 0, true},
		{"no keyframes", CameraOptions{Type: "keyframe"}, 0, true},
		{"bad interpolation", CameraOptions{Type: "keyframe", Interpolation: "cubic", Keyframes: []KeyframeOptions{{}}}, 0, true},
		{"bad mode", CameraOptions{Type: "orbit", Radius: 1, Mode: "bounce"}, 0, true},
		{"unknown type", CameraOptions{Type: "crane"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.opts.Path(cloud)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Type() != tt.want {
				t.Errorf("type = %v, want %v", p.Type(), tt.want)
			}
		})
	}

	// A fitted orbit circles the cloud's bounds center.
	p, _ := (&CameraOptions{Type: "orbit", Duration: 2, FOV: 40}).Path(cloud)
	pose := p.PoseAt(0)
	if pose.Target != cloud.BoundsCenter() || pose.FOV != 40 {
		t.Errorf("fitted pose = %+v, center %v", pose, cloud.BoundsCenter())
	}
	if d := pose.Position.Sub(pose.Target).Len(); d < cloud.BoundsSize().Len() {
		t.Errorf("fitted radius %v smaller than the cloud", d)
	}

	if _, err := (&CameraOptions{Type: "orbit"}).Path(gsplat.NewCloud()); err == nil {
		t.Error("orbit without radius around an empty cloud should fail")
	}
}

func TestParseEnums(t *testing.T) {
	if m, err := parseMode("LOOP"); err != nil || m != campath.Loop {
		t.Errorf("parseMode(LOOP) = %v, %v", m, err)
	}
	if m, err := parseMode(""); err != nil || m != campath.Once {
		t.Errorf("parseMode(\"\") = %v, %v", m, err)
	}
	if i, err := parseInterpolation("bezier"); err != nil || i != campath.Bezier {
		t.Errorf("parseInterpolation(bezier) = %v, %v", i, err)
	}
}
