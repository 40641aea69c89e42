package gpu

import "github.com/gogpu/gputypes"

// Option configures Open and FromProvider.
type Option func(*options)

type options struct {
	backend gputypes.Backend
	spirv   bool
}

func buildOptions(opts []Option) options {
	o := options{backend: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithBackend selects the hal backend. Only registered backends open;
// Vulkan is registered by default.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithSPIRV compiles shaders to SPIR-V with naga before handing them to the
// driver, instead of passing WGSL through.
func WithSPIRV() Option {
	return func(o *options) { o.spirv = true }
}
