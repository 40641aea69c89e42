package campath

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// PoseAt evaluates the path at time t without touching playback state.
// t is clamped to [0, Duration].
func (p *Path) PoseAt(t float32) Pose {
	d := p.Duration()
	t = min(max(t, 0), d)
	var s float32 // normalized time
	if d > 0 {
		s = t / d
	}

	switch p.typ {
	case TypeOrbit:
		return p.orbitPose(s)
	case TypeDolly:
		return p.dollyPose(s)
	case TypeSpiral:
		return p.spiralPose(s)
	default:
		return p.keyframePose(t)
	}
}

func (p *Path) orbitPose(s float32) Pose {
	o := &p.orbit
	_, u, w := orbitFrame(o.Axis)
	theta := o.StartAngle + s*2*math32.Pi
	off := u.Mul(math32.Cos(theta)).Add(w.Mul(math32.Sin(theta))).Mul(o.Radius)
	return Pose{Position: o.Center.Add(off), Target: o.Center, FOV: p.fov}
}

func (p *Path) spiralPose(s float32) Pose {
	sp := &p.spiral
	n, u, w := orbitFrame(sp.Axis)
	theta := sp.StartAngle + s*sp.Revolutions*2*math32.Pi
	off := u.Mul(math32.Cos(theta)).Add(w.Mul(math32.Sin(theta))).Mul(sp.Radius)
	pos := sp.Center.Add(off).Add(n.Mul(sp.Height * s))
	return Pose{Position: pos, Target: sp.Center, FOV: p.fov}
}

func (p *Path) dollyPose(s float32) Pose {
	dp := &p.dolly
	pose := Pose{Target: dp.Target, FOV: p.fov}
	n := len(dp.Points)
	switch n {
	case 0:
		pose.Position = dp.Target
		return pose
	case 1:
		pose.Position = dp.Points[0]
		return pose
	}

	segments := n - 1
	if dp.Closed {
		segments = n
	}
	f := s * float32(segments)
	i := int(math32.Floor(f))
	if i >= segments {
		i = segments - 1
	}
	local := f - float32(i)
	a := dp.Points[i]
	b := dp.Points[(i+1)%n]
	pose.Position = lerpVec(a, b, local)
	return pose
}

func (p *Path) keyframePose(t float32) Pose {
	ks := p.keyframes
	n := len(ks)
	if n == 0 {
		return Pose{FOV: p.fov}
	}
	if t <= ks[0].Time {
		return ks[0].pose()
	}
	if t >= ks[n-1].Time {
		return ks[n-1].pose()
	}

	// i is the last keyframe with Time <= t; i+1 exists since t < last.
	i := sort.Search(n, func(j int) bool { return ks[j].Time > t }) - 1
	k1, k2 := ks[i], ks[i+1]
	span := k2.Time - k1.Time
	if span <= 0 {
		return k2.pose()
	}
	local := (t - k1.Time) / span
	if local == 0 {
		return k1.pose()
	}

	switch p.interp {
	case CatmullRom:
		k0 := ks[max(i-1, 0)]
		k3 := ks[min(i+2, n-1)]
		return Pose{
			Position: catmullRom(k0.Position, k1.Position, k2.Position, k3.Position, local),
			Target:   catmullRom(k0.Target, k1.Target, k2.Target, k3.Target, local),
			FOV:      lerp(k1.FOV, k2.FOV, local),
		}
	case Bezier:
		return Pose{
			Position: bezier(k1.Position, k2.Position, local),
			Target:   bezier(k1.Target, k2.Target, local),
			FOV:      lerp(k1.FOV, k2.FOV, local),
		}
	default:
		return Pose{
			Position: lerpVec(k1.Position, k2.Position, local),
			Target:   lerpVec(k1.Target, k2.Target, local),
			FOV:      lerp(k1.FOV, k2.FOV, local),
		}
	}
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func lerpVec(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// catmullRom evaluates the uniform Catmull-Rom segment between p1 and p2.
func catmullRom(p0, p1, p2, p3 mgl32.Vec3, t float32) mgl32.Vec3 {
	t2 := t * t
	t3 := t2 * t
	var out mgl32.Vec3
	for a := 0; a < 3; a++ {
		out[a] = 0.5 * (2*p1[a] +
			(-p0[a]+p2[a])*t +
			(2*p0[a]-5*p1[a]+4*p2[a]-p3[a])*t2 +
			(-p0[a]+3*p1[a]-3*p2[a]+p3[a])*t3)
	}
	return out
}

// bezier evaluates a cubic Bezier from a to b whose inner control points
// sit a third of the way along the chord from each end.
func bezier(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	third := b.Sub(a).Mul(1.0 / 3)
	return mgl32.CubicBezierCurve3D(t, a, a.Add(third), b.Sub(third), b)
}
