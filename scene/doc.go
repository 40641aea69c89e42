// Package scene composes several Gaussian clouds into one frame.
//
// A Scene maps object IDs to clouds with a model transform, a visibility
// flag and a name. It owns every cloud added to it: Add moves the cloud's
// contents into the scene and leaves the caller's cloud empty.
//
// Rendering delegates to a render.Renderer once per visible object, farthest
// object first, with the object's model matrix folded into the view. Splats
// are sorted within an object, not across objects, so interpenetrating
// objects composite approximately.
//
// Example:
//
//	s := scene.New()
//	id := s.Add("chair", chair)
//	s.SetTransform(id, mgl32.Translate3D(2, 0, 0))
//	stats, err := s.Render(r, cam.View(), cam.Projection(target.Aspect()), target)
//
// A Scene is not safe for concurrent use.
package scene
