// Package gpucore defines the opaque GPU boundary used by gsplat.
//
// The core types ([gsplat.Cloud], the renderer) never see a native GPU
// handle. They talk to a [Device], which hands out [Buffer], [ComputePipeline],
// [BindGroup] and [CommandBuffer] values. Concrete devices live elsewhere:
//
//	               +------------------+
//	               |  gsplat / render |
//	               +---------+--------+
//	                         |  gpucore.Device
//	         +---------------+---------------+
//	         |                               |
//	+--------v--------+             +--------v--------+
//	|  MemoryDevice   |             |    HALDevice    |
//	|  (host memory)  |             |  (gogpu/wgpu)   |
//	+-----------------+             +-----------------+
//
// # Compute Model
//
// Pipelines are compute-only and are created from WGSL source. Each
// [CommandBuffer.Dispatch] records its own compute pass; passes execute in
// recording order with a full storage-buffer barrier between them, which is
// what multi-pass algorithms such as a bitonic sort rely on.
//
// # CPU Fallback
//
// [MemoryDevice] stores buffers in host memory and reports
// SupportsCompute() == false. Renderers use it to run their CPU paths while
// still exercising the same buffer lifecycle as on a real GPU.
package gpucore
