package gsplat

import "errors"

// Cloud errors.
var (
	// ErrIndexOutOfRange is returned by indexed access outside [0, Len()).
	ErrIndexOutOfRange = errors.New("gsplat: index out of range")

	// ErrDegenerateTransform is returned when a transform matrix has a
	// zero-length basis column and cannot be decomposed.
	ErrDegenerateTransform = errors.New("gsplat: degenerate transform matrix")

	// ErrInvalidPermutation is returned by Reorder when the permutation has
	// the wrong length, repeats an index or references a missing element.
	ErrInvalidPermutation = errors.New("gsplat: invalid permutation")

	// ErrNoDevice is returned when a GPU operation is requested without a device.
	ErrNoDevice = errors.New("gsplat: nil GPU device")
)

// PLY errors.
var (
	// ErrInvalidPLY is returned when a PLY stream is malformed: missing magic,
	// missing vertex element, bad counts or truncated records.
	ErrInvalidPLY = errors.New("gsplat: invalid PLY data")

	// ErrUnsupportedPLY is returned for well-formed PLY files this package
	// cannot read: ASCII encoding, list properties or missing Gaussian fields.
	ErrUnsupportedPLY = errors.New("gsplat: unsupported PLY layout")
)
