// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	_ "embed"

	"github.com/gogpu/gsplat/gpucore"
)

// Embedded WGSL shader sources.

//go:embed shaders/depth_keys.wgsl
var depthKeysShaderSource string

//go:embed shaders/bitonic.wgsl
var bitonicShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string

// Workgroup sizes declared in the shaders.
const (
	sortWorkgroupSize      = 256
	compositeWorkgroupSize = 16
)

// Pipeline descriptors. Binding numbers must match the @binding
// attributes in the WGSL sources.
var (
	depthKeysPipelineDesc = gpucore.ComputePipelineDesc{
		Label:      "gsplat_depth_keys",
		WGSL:       depthKeysShaderSource,
		EntryPoint: "main",
		Bindings: []gpucore.BindingLayout{
			{Binding: 0, Type: gpucore.BindingTypeUniformBuffer},
			{Binding: 1, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
			{Binding: 2, Type: gpucore.BindingTypeStorageBuffer},
			{Binding: 3, Type: gpucore.BindingTypeStorageBuffer},
		},
	}

	bitonicPipelineDesc = gpucore.ComputePipelineDesc{
		Label:      "gsplat_bitonic",
		WGSL:       bitonicShaderSource,
		EntryPoint: "main",
		Bindings: []gpucore.BindingLayout{
			{Binding: 0, Type: gpucore.BindingTypeUniformBuffer},
			{Binding: 1, Type: gpucore.BindingTypeStorageBuffer},
			{Binding: 2, Type: gpucore.BindingTypeStorageBuffer},
		},
	}

	compositePipelineDesc = gpucore.ComputePipelineDesc{
		Label:      "gsplat_composite",
		WGSL:       compositeShaderSource,
		EntryPoint: "main",
		Bindings: []gpucore.BindingLayout{
			{Binding: 0, Type: gpucore.BindingTypeUniformBuffer},
			{Binding: 1, Type: gpucore.BindingTypeReadOnlyStorageBuffer},
			{Binding: 2, Type: gpucore.BindingTypeStorageBuffer},
		},
	}
)

// ShaderSources returns the embedded WGSL sources keyed by pipeline label.
// Hosts that precompile shaders use it to warm their caches.
func ShaderSources() map[string]string {
	return map[string]string{
		depthKeysPipelineDesc.Label: depthKeysShaderSource,
		bitonicPipelineDesc.Label:   bitonicShaderSource,
		compositePipelineDesc.Label: compositeShaderSource,
	}
}
