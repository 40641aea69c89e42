package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/campath"
	"github.com/gogpu/gsplat/render"
)

// Job describes one render run. It is read from a TOML or YAML file and
// then patched by command line flags.
type Job struct {
	Input      string     `toml:"input" yaml:"input"`
	Output     string     `toml:"output" yaml:"output"`
	Width      int        `toml:"width" yaml:"width"`
	Height     int        `toml:"height" yaml:"height"`
	FPS        float32    `toml:"fps" yaml:"fps"`
	Background [4]float32 `toml:"background" yaml:"background"`
	GPU        bool       `toml:"gpu" yaml:"gpu"`
	SPIRV      bool       `toml:"spirv" yaml:"spirv"`

	Render RenderOptions `toml:"render" yaml:"render"`
	Camera CameraOptions `toml:"camera" yaml:"camera"`
}

// RenderOptions mirrors render.RenderConfig with file-friendly names.
type RenderOptions struct {
	DepthSort         bool    `toml:"depth_sort" yaml:"depth_sort"`
	AntiAliasing      bool    `toml:"anti_aliasing" yaml:"anti_aliasing"`
	Supersample       int     `toml:"supersample" yaml:"supersample"`
	SHDegree          int     `toml:"sh_degree" yaml:"sh_degree"`
	SplatScale        float32 `toml:"splat_scale" yaml:"splat_scale"`
	OpacityMultiplier float32 `toml:"opacity_multiplier" yaml:"opacity_multiplier"`
	MinOpacity        float32 `toml:"min_opacity" yaml:"min_opacity"`
	FrustumCulling    bool    `toml:"frustum_culling" yaml:"frustum_culling"`
	Workers           int     `toml:"workers" yaml:"workers"`
}

// CameraOptions selects and parameterizes the camera path. Angles are in
// degrees. A non-positive Radius for orbit and spiral paths fits the
// path around the loaded cloud.
type CameraOptions struct {
	Type          string `toml:"type" yaml:"type"`
	Mode          string `toml:"mode" yaml:"mode"`
	Interpolation string `toml:"interpolation" yaml:"interpolation"`

	FOV         float32    `toml:"fov" yaml:"fov"`
	Duration    float32    `toml:"duration" yaml:"duration"`
	Center      mgl32.Vec3 `toml:"center" yaml:"center"`
	Axis        mgl32.Vec3 `toml:"axis" yaml:"axis"`
	Radius      float32    `toml:"radius" yaml:"radius"`
	StartAngle  float32    `toml:"start_angle" yaml:"start_angle"`
	Height      float32    `toml:"height" yaml:"height"`
	Revolutions float32    `toml:"revolutions" yaml:"revolutions"`

	Points []mgl32.Vec3 `toml:"points" yaml:"points"`
	Target mgl32.Vec3   `toml:"target" yaml:"target"`
	Closed bool         `toml:"closed" yaml:"closed"`

	Keyframes []KeyframeOptions `toml:"keyframes" yaml:"keyframes"`
}

// KeyframeOptions is one keyframe of a keyframe path.
type KeyframeOptions struct {
	Time     float32    `toml:"time" yaml:"time"`
	Position mgl32.Vec3 `toml:"position" yaml:"position"`
	Target   mgl32.Vec3 `toml:"target" yaml:"target"`
	FOV      float32    `toml:"fov" yaml:"fov"`
}

// DefaultJob returns the job used when no file is given: a four second
// orbit fitted to the cloud, rendered at 640x480 and 24 fps.
func DefaultJob() Job {
	cfg := render.DefaultRenderConfig()
	return Job{
		Output:     "frame_%04d.png",
		Width:      640,
		Height:     480,
		FPS:        24,
		Background: [4]float32{0, 0, 0, 1},
		Render: RenderOptions{
			DepthSort:         cfg.DepthSort,
			AntiAliasing:      cfg.AntiAliasing,
			Supersample:       cfg.Supersample,
			SHDegree:          cfg.SHDegree,
			SplatScale:        cfg.SplatScale,
			OpacityMultiplier: cfg.OpacityMultiplier,
			MinOpacity:        cfg.MinOpacity,
			FrustumCulling:    cfg.FrustumCulling,
		},
		Camera: CameraOptions{
			Type:        "orbit",
			Mode:        "once",
			FOV:         campath.DefaultFOV,
			Duration:    4,
			Axis:        mgl32.Vec3{0, 1, 0},
			Revolutions: 1,
		},
	}
}

// LoadJob decodes the file at path onto DefaultJob. The format follows the
// extension: .toml, or .yaml and .yml.
func LoadJob(path string) (Job, error) {
	job := DefaultJob()
	data, err := os.ReadFile(path)
	if err != nil {
		return job, err
	}
	if err := decodeJob(data, filepath.Ext(path), &job); err != nil {
		return job, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

func decodeJob(data []byte, ext string, job *Job) error {
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(job)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(job)
	default:
		return fmt.Errorf("unknown job format %q", ext)
	}
}

// Validate reports the first problem that would stop a run.
func (j *Job) Validate() error {
	switch {
	case j.Input == "":
		return fmt.Errorf("no input PLY")
	case j.Output == "":
		return fmt.Errorf("no output pattern")
	case j.Width <= 0 || j.Height <= 0:
		return fmt.Errorf("invalid size %dx%d", j.Width, j.Height)
	case !(j.FPS > 0):
		return fmt.Errorf("invalid fps %v", j.FPS)
	}
	return nil
}

// RenderConfig converts the render section.
func (j *Job) RenderConfig() render.RenderConfig {
	o := j.Render
	return render.RenderConfig{
		DepthSort:          o.DepthSort,
		AntiAliasing:       o.AntiAliasing,
		Supersample:        o.Supersample,
		SphericalHarmonics: o.SHDegree > 0,
		SHDegree:           o.SHDegree,
		SplatScale:         o.SplatScale,
		OpacityMultiplier:  o.OpacityMultiplier,
		MinOpacity:         o.MinOpacity,
		FrustumCulling:     o.FrustumCulling,
	}.Normalized()
}

// Path builds the camera path. cloud is used to fit orbit and spiral
// paths that leave Radius unset; it may be nil otherwise.
func (c *CameraOptions) Path(cloud *gsplat.Cloud) (*campath.Path, error) {
	mode, err := parseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	center, radius := c.Center, c.Radius
	if radius <= 0 && cloud != nil && !cloud.IsEmpty() {
		center = cloud.BoundsCenter()
		radius = max(cloud.BoundsSize().Len()*1.2, 0.1)
	}

	var p *campath.Path
	switch strings.ToLower(c.Type) {
	case "orbit", "":
		if radius <= 0 {
			return nil, fmt.Errorf("orbit: radius must be positive")
		}
		p = campath.NewOrbit(campath.OrbitParams{
			Center:     center,
			Axis:       c.Axis,
			Radius:     radius,
			StartAngle: mgl32.DegToRad(c.StartAngle),
			Duration:   c.Duration,
		})
	case "spiral":
		if radius <= 0 {
			return nil, fmt.Errorf("spiral: radius must be positive")
		}
		p = campath.NewSpiral(campath.SpiralParams{
			Center:      center,
			Axis:        c.Axis,
			Radius:      radius,
			StartAngle:  mgl32.DegToRad(c.StartAngle),
			Height:      c.Height,
			Revolutions: c.Revolutions,
			Duration:    c.Duration,
		})
	case "dolly":
		if len(c.Points) < 2 {
			return nil, fmt.Errorf("dolly: need at least 2 points, have %d", len(c.Points))
		}
		p = campath.NewDolly(campath.DollyParams{
			Points:   c.Points,
			Target:   c.Target,
			Closed:   c.Closed,
			Duration: c.Duration,
		})
	case "keyframe", "keyframes":
		if len(c.Keyframes) == 0 {
			return nil, fmt.Errorf("keyframe: no keyframes")
		}
		interp, err := parseInterpolation(c.Interpolation)
		if err != nil {
			return nil, err
		}
		keys := make([]campath.Keyframe, len(c.Keyframes))
		for i, k := range c.Keyframes {
			fov := k.FOV
			if fov <= 0 {
				fov = c.FOV
			}
			keys[i] = campath.Keyframe{Time: k.Time, Position: k.Position, Target: k.Target, FOV: fov}
		}
		p = campath.NewKeyframe(interp, keys...)
	default:
		return nil, fmt.Errorf("unknown camera type %q", c.Type)
	}
	p.SetMode(mode)
	if p.Type() != campath.TypeKeyframe && c.FOV > 0 {
		p.SetFOV(c.FOV)
	}
	return p, nil
}

func parseMode(s string) (campath.PlaybackMode, error) {
	for _, m := range []campath.PlaybackMode{campath.Once, campath.Loop, campath.PingPong} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	if s == "" {
		return campath.Once, nil
	}
	return 0, fmt.Errorf("unknown playback mode %q", s)
}

func parseInterpolation(s string) (campath.Interpolation, error) {
	for _, i := range []campath.Interpolation{campath.Linear, campath.CatmullRom, campath.Bezier} {
		if strings.EqualFold(s, i.String()) {
			return i, nil
		}
	}
	if s == "" {
		return campath.Linear, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}
