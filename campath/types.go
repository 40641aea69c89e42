package campath

import "github.com/go-gl/mathgl/mgl32"

// DefaultFOV is the vertical field of view in degrees used by procedural
// families until SetFOV is called.
const DefaultFOV = 60

// Type is the active path family.
type Type int

// Path families.
const (
	TypeKeyframe Type = iota
	TypeOrbit
	TypeDolly
	TypeSpiral
)

// String returns the family name.
func (t Type) String() string {
	switch t {
	case TypeKeyframe:
		return "Keyframe"
	case TypeOrbit:
		return "Orbit"
	case TypeDolly:
		return "Dolly"
	case TypeSpiral:
		return "Spiral"
	default:
		return "Unknown"
	}
}

// Interpolation selects how keyframes are blended.
type Interpolation int

// Keyframe interpolation modes.
const (
	Linear Interpolation = iota
	CatmullRom
	Bezier
)

// String returns the interpolation name.
func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "Linear"
	case CatmullRom:
		return "CatmullRom"
	case Bezier:
		return "Bezier"
	default:
		return "Unknown"
	}
}

// PlaybackMode controls what happens when time reaches the path duration.
type PlaybackMode int

// Playback modes.
const (
	// Once stops at the end.
	Once PlaybackMode = iota
	// Loop wraps back to the start.
	Loop
	// PingPong reverses direction at each end.
	PingPong
)

// String returns the mode name.
func (m PlaybackMode) String() string {
	switch m {
	case Once:
		return "Once"
	case Loop:
		return "Loop"
	case PingPong:
		return "PingPong"
	default:
		return "Unknown"
	}
}

// State is the playback state.
type State int

// Playback states.
const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Pose is a camera placement.
type Pose struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	// FOV is the vertical field of view in degrees.
	FOV float32
}

// Keyframe anchors a pose at a time in seconds.
type Keyframe struct {
	Time     float32
	Position mgl32.Vec3
	Target   mgl32.Vec3
	FOV      float32
}

func (k Keyframe) pose() Pose {
	return Pose{Position: k.Position, Target: k.Target, FOV: k.FOV}
}

// Camera is anything a path can drive.
type Camera interface {
	SetPosition(p mgl32.Vec3)
	LookAt(target mgl32.Vec3)
	SetFOV(degrees float32)
}

// OrbitParams configures an orbit.
//
// The orbit starts at Center + Radius·u, where u is the world X axis made
// perpendicular to Axis (world Z when Axis is parallel to X), and advances
// towards u × Axis.
type OrbitParams struct {
	Center mgl32.Vec3
	// Axis defaults to +Y when zero.
	Axis   mgl32.Vec3
	Radius float32
	// StartAngle is in radians.
	StartAngle float32
	// Duration of one revolution in seconds.
	Duration float32
}

// DollyParams configures a dolly through control points.
type DollyParams struct {
	Points []mgl32.Vec3
	Target mgl32.Vec3
	// Closed adds a segment from the last point back to the first.
	Closed   bool
	Duration float32
}

// SpiralParams configures a spiral: an orbit that rises by Height along
// Axis over the full duration while completing Revolutions turns.
type SpiralParams struct {
	Center      mgl32.Vec3
	Axis        mgl32.Vec3
	Radius      float32
	StartAngle  float32
	Height      float32
	Revolutions float32
	Duration    float32
}
