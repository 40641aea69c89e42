// Package campath produces time-parameterized camera trajectories.
//
// A [Path] evaluates one of four families at a time:
//
//   - Orbit: circles a center point around an axis.
//   - Dolly: moves piecewise-linearly through control points.
//   - Spiral: an orbit with linear height change along the axis.
//   - Keyframe: interpolates user keyframes (linear, Catmull-Rom, Bezier).
//
// Playback is pull-based. The host calls [Path.Update] with the frame delta
// and then [Path.ApplyToCamera]; the pose is cached and recomputed only after
// the time or the parameters change.
//
//	p := campath.NewOrbit(campath.OrbitParams{
//	    Center:   mgl32.Vec3{0, 0, 0},
//	    Axis:     mgl32.Vec3{0, 1, 0},
//	    Radius:   5,
//	    Duration: 4,
//	})
//	p.SetMode(campath.Loop)
//	p.Play()
//	for range ticker.C {
//	    p.Update(dt)
//	    p.ApplyToCamera(cam)
//	}
//
// Path is not safe for concurrent use.
package campath
