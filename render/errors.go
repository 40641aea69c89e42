// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "errors"

var (
	// ErrNotInitialized is returned by Render before Initialize has succeeded.
	ErrNotInitialized = errors.New("render: renderer not initialized")

	// ErrNilTarget is returned when Render is called without a target.
	ErrNilTarget = errors.New("render: nil render target")

	// ErrTargetNotCPUAccessible is returned for targets whose Pixels is nil.
	ErrTargetNotCPUAccessible = errors.New("render: target has no CPU-accessible pixels")

	// ErrUnsupportedFormat is returned for targets that are neither RGBA8 nor BGRA8.
	ErrUnsupportedFormat = errors.New("render: unsupported target format")

	// ErrFallbackToCPU is reported by GPU stages that could not complete.
	// The renderer reacts by running the CPU equivalent.
	ErrFallbackToCPU = errors.New("render: falling back to CPU")
)
