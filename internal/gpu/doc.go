//go:build !nogpu

// Package gpu implements gpucore.Device on top of gogpu/wgpu's hal layer.
//
// A HALDevice either owns its hal instance and device (Open) or borrows
// them from a host application (Wrap); a borrowed device is never destroyed
// here. Command buffers record lazily and encode everything at Commit, so
// an abandoned command buffer holds no GPU resources.
package gpu
