// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpucore"
)

// maxGPUSortCount keeps one dispatch of sortWorkgroupSize threads within
// the 65535 workgroup limit.
const maxGPUSortCount = 1 << 23

const (
	keyParamsSize   = 80
	stageParamsSize = 16
)

// GPUSorter sorts on the device with a bitonic network.
//
// A depth-key pass writes (key, index) pairs for the next power of two,
// padding with the largest key and index. One compute pass per (k, j)
// stage of the network follows; each pass boundary is a full barrier, so
// the stages need no intra-pass synchronization. The resulting indices are
// read back and validated before use.
//
// Every failure is reported wrapped in ErrFallbackToCPU.
type GPUSorter struct {
	dev       gpucore.Device
	keysPipe  gpucore.ComputePipeline
	stagePipe gpucore.ComputePipeline

	capacity uint32 // padded slots the buffers hold
	keys     gpucore.Buffer
	indices  gpucore.Buffer
	staging  gpucore.Buffer
	params   gpucore.Buffer
}

// NewGPUSorter compiles the sort pipelines on dev.
func NewGPUSorter(dev gpucore.Device) (*GPUSorter, error) {
	if dev == nil {
		return nil, gsplat.ErrNoDevice
	}
	if !dev.SupportsCompute() {
		return nil, gpucore.ErrComputeUnsupported
	}
	keysDesc := depthKeysPipelineDesc
	keysPipe, err := dev.CreateComputePipeline(&keysDesc)
	if err != nil {
		return nil, fmt.Errorf("render: depth key pipeline: %w", err)
	}
	stageDesc := bitonicPipelineDesc
	stagePipe, err := dev.CreateComputePipeline(&stageDesc)
	if err != nil {
		keysPipe.Destroy()
		return nil, fmt.Errorf("render: bitonic pipeline: %w", err)
	}
	return &GPUSorter{dev: dev, keysPipe: keysPipe, stagePipe: stagePipe}, nil
}

// Name returns "gpu-bitonic".
func (s *GPUSorter) Name() string { return "gpu-bitonic" }

// Sort returns the back-to-front permutation computed on the device.
// It uploads the cloud mirror if it is stale.
func (s *GPUSorter) Sort(cloud *gsplat.Cloud, view mgl32.Mat4) ([]int, error) {
	n := cloud.Len()
	if n == 0 {
		return []int{}, nil
	}
	if n > maxGPUSortCount {
		return nil, fmt.Errorf("%w: %d splats exceed the GPU sort limit", ErrFallbackToCPU, n)
	}
	if err := cloud.SyncBuffer(s.dev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackToCPU, err)
	}

	count := uint32(n) //nolint:gosec // n <= maxGPUSortCount
	padded := nextPow2(count)
	stages := bitonicStages(padded)
	if err := s.ensureBuffers(padded, len(stages)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackToCPU, err)
	}
	if err := s.dev.WriteBuffer(s.params, 0, encodeSortParams(view, count, padded, stages)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackToCPU, err)
	}

	order, err := s.run(cloud, n, padded, stages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackToCPU, err)
	}
	return order, nil
}

func (s *GPUSorter) run(cloud *gsplat.Cloud, n int, padded uint32, stages [][2]uint32) ([]int, error) {
	slots := uint64(padded) * 4
	groups := make([]gpucore.BindGroup, 0, len(stages)+1)
	defer func() {
		for _, g := range groups {
			g.Destroy()
		}
	}()

	keysGroup, err := s.dev.CreateBindGroup(s.keysPipe, []gpucore.BindGroupEntry{
		{Binding: 0, Buffer: s.params, Offset: 0, Size: keyParamsSize},
		{Binding: 1, Buffer: cloud.Buffer(), Offset: 0, Size: cloud.BufferBytes()},
		{Binding: 2, Buffer: s.keys, Offset: 0, Size: slots},
		{Binding: 3, Buffer: s.indices, Offset: 0, Size: slots},
	})
	if err != nil {
		return nil, fmt.Errorf("key bind group: %w", err)
	}
	groups = append(groups, keysGroup)

	for i := range stages {
		g, err := s.dev.CreateBindGroup(s.stagePipe, []gpucore.BindGroupEntry{
			{Binding: 0, Buffer: s.params, Offset: uint64(i+1) * uniformAlign, Size: stageParamsSize},
			{Binding: 1, Buffer: s.keys, Offset: 0, Size: slots},
			{Binding: 2, Buffer: s.indices, Offset: 0, Size: slots},
		})
		if err != nil {
			return nil, fmt.Errorf("stage %d bind group: %w", i, err)
		}
		groups = append(groups, g)
	}

	cmd, err := s.dev.NewCommandBuffer("gsplat_sort")
	if err != nil {
		return nil, err
	}
	wg := (padded + sortWorkgroupSize - 1) / sortWorkgroupSize
	if err := cmd.Dispatch(s.keysPipe, keysGroup, wg, 1, 1); err != nil {
		return nil, err
	}
	for _, g := range groups[1:] {
		if err := cmd.Dispatch(s.stagePipe, g, wg, 1, 1); err != nil {
			return nil, err
		}
	}
	size := uint64(n) * 4
	if err := cmd.CopyBuffer(s.indices, 0, s.staging, 0, size); err != nil {
		return nil, err
	}
	if err := cmd.Commit(); err != nil {
		return nil, err
	}

	raw := make([]byte, size)
	if err := s.dev.ReadBuffer(s.staging, 0, raw); err != nil {
		return nil, err
	}
	return decodePermutation(raw, n)
}

func (s *GPUSorter) ensureBuffers(padded uint32, stageCount int) error {
	paramsSize := uint64(stageCount+1) * uniformAlign
	if s.params == nil || s.params.Size() < paramsSize {
		if s.params != nil {
			s.params.Destroy()
			s.params = nil
		}
		buf, err := s.dev.CreateBuffer(&gpucore.BufferDesc{
			Label: "gsplat_sort_params",
			Size:  paramsSize,
			Usage: gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("sort params: %w", err)
		}
		s.params = buf
	}
	if s.capacity >= padded {
		return nil
	}

	s.releaseSlots()
	size := uint64(padded) * 4
	var err error
	if s.keys, err = s.createSlots("gsplat_sort_keys", size, gpucore.BufferUsageStorage); err != nil {
		return err
	}
	if s.indices, err = s.createSlots("gsplat_sort_indices", size, gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc); err != nil {
		return err
	}
	if s.staging, err = s.createSlots("gsplat_sort_staging", size, gpucore.BufferUsageMapRead|gpucore.BufferUsageCopyDst); err != nil {
		return err
	}
	s.capacity = padded
	gsplat.Logger().Debug("render: sort buffers allocated", "slots", padded)
	return nil
}

func (s *GPUSorter) createSlots(label string, size uint64, usage gpucore.BufferUsage) (gpucore.Buffer, error) {
	buf, err := s.dev.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: size, Usage: usage})
	if err != nil {
		s.releaseSlots()
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return buf, nil
}

func (s *GPUSorter) releaseSlots() {
	for _, b := range []*gpucore.Buffer{&s.keys, &s.indices, &s.staging} {
		if *b != nil {
			(*b).Destroy()
			*b = nil
		}
	}
	s.capacity = 0
}

// Close releases the pipelines and buffers.
func (s *GPUSorter) Close() {
	s.releaseSlots()
	if s.params != nil {
		s.params.Destroy()
		s.params = nil
	}
	if s.stagePipe != nil {
		s.stagePipe.Destroy()
		s.stagePipe = nil
	}
	if s.keysPipe != nil {
		s.keysPipe.Destroy()
		s.keysPipe = nil
	}
}

// bitonicStages lists the (k, j) compare distances of a bitonic network
// over n elements, n a power of two.
func bitonicStages(n uint32) [][2]uint32 {
	var stages [][2]uint32
	for k := uint32(2); k <= n; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			stages = append(stages, [2]uint32{k, j})
		}
	}
	return stages
}

// encodeSortParams lays out the key pass parameters in slot 0 and one
// stage per following uniformAlign slot.
func encodeSortParams(view mgl32.Mat4, count, padded uint32, stages [][2]uint32) []byte {
	buf := make([]byte, (len(stages)+1)*uniformAlign)
	le := binary.LittleEndian
	for i, v := range view {
		le.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	le.PutUint32(buf[64:], count)
	le.PutUint32(buf[68:], padded)
	for i, st := range stages {
		off := (i + 1) * uniformAlign
		le.PutUint32(buf[off:], st[0])
		le.PutUint32(buf[off+4:], st[1])
		le.PutUint32(buf[off+8:], padded)
	}
	return buf
}

// decodePermutation parses n little-endian indices and checks that they
// form a permutation of [0, n).
func decodePermutation(raw []byte, n int) ([]int, error) {
	if len(raw) < n*4 {
		return nil, fmt.Errorf("readback too short: %d bytes", len(raw))
	}
	order := make([]int, n)
	seen := make([]bool, n)
	for i := range order {
		v := binary.LittleEndian.Uint32(raw[i*4:])
		if uint64(v) >= uint64(n) || seen[v] {
			return nil, fmt.Errorf("readback is not a permutation at %d (%d)", i, v)
		}
		seen[v] = true
		order[i] = int(v)
	}
	return order, nil
}

var _ DepthSorter = (*GPUSorter)(nil)
