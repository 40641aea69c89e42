//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// CompileSPIRV compiles WGSL source to SPIR-V words with naga.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	raw, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("compile shader: SPIR-V length %d is not word aligned", len(raw))
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(raw)/4)
	for i := range code {
		code[i] = uint32(raw[i*4]) |
			uint32(raw[i*4+1])<<8 |
			uint32(raw[i*4+2])<<16 |
			uint32(raw[i*4+3])<<24
	}
	if len(code) == 0 || code[0] != spirvMagic {
		return nil, fmt.Errorf("compile shader: missing SPIR-V magic")
	}
	return code, nil
}
