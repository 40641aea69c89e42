//go:build nogpu

package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpucore"
)

// Open always fails in nogpu builds.
func Open(...Option) (gpucore.Device, error) { return nil, gsplat.ErrNoDevice }

// FromProvider always fails in nogpu builds.
func FromProvider(gpucontext.DeviceProvider, ...Option) (gpucore.Device, error) {
	return nil, gsplat.ErrNoDevice
}
