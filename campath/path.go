package campath

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Path is a camera trajectory with playback state.
//
// Only one family is active at a time. Switching families discards the
// previous family's parameters; keyframes survive until ClearKeyframes.
type Path struct {
	typ    Type
	orbit  OrbitParams
	dolly  DollyParams
	spiral SpiralParams

	keyframes []Keyframe // sorted by Time, stable for equal times
	interp    Interpolation

	fov    float32
	lookAt bool

	mode      PlaybackMode
	state     State
	time      float32
	speed     float32
	direction float32 // +1 forward, -1 backward (PingPong)

	pose      Pose
	poseDirty bool
}

// New returns an empty keyframe path with Linear interpolation, Once
// playback and speed 1.
func New() *Path {
	return &Path{
		fov:       DefaultFOV,
		lookAt:    true,
		speed:     1,
		direction: 1,
		poseDirty: true,
	}
}

// NewOrbit returns an orbit path.
func NewOrbit(params OrbitParams) *Path {
	p := New()
	p.SetOrbit(params)
	return p
}

// NewDolly returns a dolly path.
func NewDolly(params DollyParams) *Path {
	p := New()
	p.SetDolly(params)
	return p
}

// NewSpiral returns a spiral path.
func NewSpiral(params SpiralParams) *Path {
	p := New()
	p.SetSpiral(params)
	return p
}

// NewKeyframe returns a keyframe path holding a sorted copy of keys.
func NewKeyframe(interp Interpolation, keys ...Keyframe) *Path {
	p := New()
	p.SetInterpolation(interp)
	for _, k := range keys {
		p.AddKeyframe(k)
	}
	return p
}

// markDirty invalidates the cached pose. All mutators must call it.
func (p *Path) markDirty() {
	p.poseDirty = true
}

// Type returns the active family.
func (p *Path) Type() Type { return p.typ }

// SetOrbit makes the path an orbit.
func (p *Path) SetOrbit(params OrbitParams) {
	params.Duration = max(params.Duration, 0)
	p.typ = TypeOrbit
	p.orbit = params
	p.dolly = DollyParams{}
	p.spiral = SpiralParams{}
	p.clampTime()
	p.markDirty()
}

// SetDolly makes the path a dolly. The points are copied.
func (p *Path) SetDolly(params DollyParams) {
	params.Duration = max(params.Duration, 0)
	params.Points = slices.Clone(params.Points)
	p.typ = TypeDolly
	p.dolly = params
	p.orbit = OrbitParams{}
	p.spiral = SpiralParams{}
	p.clampTime()
	p.markDirty()
}

// SetSpiral makes the path a spiral.
func (p *Path) SetSpiral(params SpiralParams) {
	params.Duration = max(params.Duration, 0)
	p.typ = TypeSpiral
	p.spiral = params
	p.orbit = OrbitParams{}
	p.dolly = DollyParams{}
	p.clampTime()
	p.markDirty()
}

// SetInterpolation makes the path a keyframe path using interp.
func (p *Path) SetInterpolation(interp Interpolation) {
	p.typ = TypeKeyframe
	p.interp = interp
	p.orbit = OrbitParams{}
	p.dolly = DollyParams{}
	p.spiral = SpiralParams{}
	p.clampTime()
	p.markDirty()
}

// Interpolation returns the keyframe interpolation mode.
func (p *Path) Interpolation() Interpolation { return p.interp }

// AddKeyframe inserts k in time order. A keyframe with the same time as an
// existing one is placed after it. Negative times are clamped to zero.
func (p *Path) AddKeyframe(k Keyframe) {
	k.Time = max(k.Time, 0)
	i, _ := slices.BinarySearchFunc(p.keyframes, k.Time, func(e Keyframe, t float32) int {
		if e.Time <= t {
			return -1
		}
		return 1
	})
	p.keyframes = slices.Insert(p.keyframes, i, k)
	p.markDirty()
}

// ClearKeyframes removes all keyframes.
func (p *Path) ClearKeyframes() {
	p.keyframes = p.keyframes[:0]
	p.clampTime()
	p.markDirty()
}

// Keyframes returns a copy of the keyframes in time order.
func (p *Path) Keyframes() []Keyframe {
	return slices.Clone(p.keyframes)
}

// SetFOV sets the field of view used by the procedural families.
func (p *Path) SetFOV(degrees float32) {
	p.fov = degrees
	p.markDirty()
}

// SetLookAtEnabled controls whether ApplyToCamera aims the camera.
func (p *Path) SetLookAtEnabled(enabled bool) {
	p.lookAt = enabled
}

// LookAtEnabled reports whether ApplyToCamera aims the camera.
func (p *Path) LookAtEnabled() bool { return p.lookAt }

// Duration returns the length of the path in seconds. For keyframe paths
// it is the largest keyframe time.
func (p *Path) Duration() float32 {
	switch p.typ {
	case TypeOrbit:
		return p.orbit.Duration
	case TypeDolly:
		return p.dolly.Duration
	case TypeSpiral:
		return p.spiral.Duration
	default:
		if len(p.keyframes) == 0 {
			return 0
		}
		return p.keyframes[len(p.keyframes)-1].Time
	}
}

// Mode returns the playback mode.
func (p *Path) Mode() PlaybackMode { return p.mode }

// SetMode sets the playback mode.
func (p *Path) SetMode(m PlaybackMode) {
	p.mode = m
	p.direction = 1
	p.clampTime()
	p.markDirty()
}

// State returns the playback state.
func (p *Path) State() State { return p.state }

// Speed returns the playback speed multiplier.
func (p *Path) Speed() float32 { return p.speed }

// SetSpeed sets the playback speed multiplier. Zero freezes time; negative
// values play backwards.
func (p *Path) SetSpeed(s float32) {
	p.speed = s
}

// CurrentTime returns the playback time in seconds.
func (p *Path) CurrentTime() float32 { return p.time }

// Progress returns CurrentTime / Duration, or 0 for an empty path.
func (p *Path) Progress() float32 {
	d := p.Duration()
	if d <= 0 {
		return 0
	}
	return p.time / d
}

// Play starts or resumes playback. A Once path that has reached its end
// starts over.
func (p *Path) Play() {
	if p.state == Stopped && p.mode == Once && p.time >= p.Duration() {
		p.time = 0
		p.direction = 1
		p.markDirty()
	}
	p.state = Playing
}

// Pause halts playback, keeping the current time.
func (p *Path) Pause() {
	if p.state == Playing {
		p.state = Paused
	}
}

// Stop halts playback and rewinds to time 0.
func (p *Path) Stop() {
	p.state = Stopped
	p.time = 0
	p.direction = 1
	p.markDirty()
}

// Seek moves to time t, clamped to [0, Duration]. In Loop mode the end
// maps to the start.
func (p *Path) Seek(t float32) {
	p.time = t
	p.clampTime()
	p.markDirty()
}

// Update advances playback by dt·speed seconds when playing.
func (p *Path) Update(dt float32) {
	if p.state != Playing {
		return
	}
	d := p.Duration()
	step := dt * p.speed
	if d <= 0 {
		p.time = 0
		if p.mode == Once {
			p.state = Stopped
		}
		p.markDirty()
		return
	}
	if step == 0 {
		return
	}

	switch p.mode {
	case Loop:
		p.time = wrap(p.time+step, d)
	case PingPong:
		// Unfold the bounce into a sawtooth of period 2d.
		u := p.time
		if p.direction < 0 {
			u = 2*d - p.time
		}
		u = wrap(u+step, 2*d)
		if u <= d {
			p.time, p.direction = u, 1
		} else {
			p.time, p.direction = 2*d-u, -1
		}
	default:
		p.time += step
		if p.time >= d {
			p.time = d
			p.state = Stopped
		} else if p.time <= 0 {
			p.time = 0
			p.state = Stopped
		}
	}
	p.markDirty()
}

// clampTime keeps time valid after the duration or mode changed.
func (p *Path) clampTime() {
	d := p.Duration()
	switch {
	case d <= 0 || p.time < 0 || math32.IsNaN(p.time):
		p.time = 0
	case p.mode == Loop:
		p.time = wrap(p.time, d)
	case p.time > d:
		p.time = d
	}
}

// wrap returns t modulo d in [0, d).
func wrap(t, d float32) float32 {
	t = math32.Mod(t, d)
	if t < 0 {
		t += d
	}
	if t >= d {
		t = 0
	}
	return t
}

// Pose returns the pose at the current time, recomputing it only after a
// change.
func (p *Path) Pose() Pose {
	if p.poseDirty {
		p.pose = p.PoseAt(p.time)
		p.poseDirty = false
	}
	return p.pose
}

// ApplyToCamera moves cam to the current pose. The look-at target is
// applied only while look-at is enabled.
func (p *Path) ApplyToCamera(cam Camera) {
	pose := p.Pose()
	cam.SetPosition(pose.Position)
	if p.lookAt {
		cam.LookAt(pose.Target)
	}
	cam.SetFOV(pose.FOV)
}

// Sample evaluates the path at fps frames per second from 0 through
// Duration inclusive. It does not change the playback state.
func (p *Path) Sample(fps float32) []Pose {
	if !(fps > 0) {
		return nil
	}
	d := p.Duration()
	n := int(math32.Floor(d*fps+1e-4)) + 1
	poses := make([]Pose, n)
	for i := range poses {
		poses[i] = p.PoseAt(min(float32(i)/fps, d))
	}
	return poses
}

// orbitFrame returns two unit vectors spanning the plane perpendicular to
// axis. A zero axis is treated as +Y.
func orbitFrame(axis mgl32.Vec3) (n, u, w mgl32.Vec3) {
	if axis.Len() < 1e-6 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	n = axis.Normalize()
	ref := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n.Dot(ref)) > 1-1e-6 {
		ref = mgl32.Vec3{0, 0, 1}
	}
	u = ref.Sub(n.Mul(ref.Dot(n))).Normalize()
	w = u.Cross(n)
	return n, u, w
}
