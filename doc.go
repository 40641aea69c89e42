// Package gsplat provides the data model for 3D Gaussian Splatting scenes.
//
// # Overview
//
// A scene is a collection of anisotropic 3D Gaussians ("splats"), each with a
// position, a per-axis scale, an orientation quaternion, an opacity and a
// spherical-harmonics color. gsplat owns these collections ([Cloud]), derives
// the per-splat quantities needed for rendering (covariance, culling radius,
// view-dependent color) and reads and writes the binary PLY interchange
// format.
//
// # Quick Start
//
//	import "github.com/gogpu/gsplat"
//
//	cloud := gsplat.NewCloud()
//	if err := cloud.LoadPLY("scene.ply"); err != nil {
//	    log.Fatal(err)
//	}
//	cloud.RemoveInvisible(0.01)
//	fmt.Println(cloud.Len(), cloud.BoundsCenter())
//
// # Rendering
//
// Rendering lives in the render sub-package. It depth-sorts a Cloud
// back-to-front and composites one billboard per splat, on the GPU when a
// compute-capable gpucore.Device is available and on the CPU otherwise.
// Camera animation lives in campath, multi-object composition in scene.
//
// # Coordinate System
//
// Right-handed world space, as produced by mgl32.LookAtV: the camera looks
// down its local -Z axis, Y is up. Depth is reported as a positive distance
// in front of the camera.
//
// # Thread Safety
//
// Cloud is not safe for concurrent use. Callers must not mutate a cloud
// while it is being rendered.
package gsplat

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
