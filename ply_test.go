package gsplat

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPLYRoundTrip(t *testing.T) {
	src := randomCloud(64)
	path := filepath.Join(t.TempDir(), "cloud.ply")
	require.NoError(t, src.SavePLY(path))

	dst := NewCloud()
	require.NoError(t, dst.LoadPLY(path))
	assert.Equal(t, src.Gaussians(), dst.Gaussians())
}

func TestPLYRoundTripDropsSH(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{1, 2, 3}, 0.5, 0.8, mgl32.Vec3{0.1, 0.2, 0.3})
	g.ColorSH[4] = mgl32.Vec3{1, 1, 1}
	src := NewCloudFrom([]Gaussian{g})

	var buf bytes.Buffer
	require.NoError(t, src.WritePLY(&buf))
	dst := NewCloud()
	require.NoError(t, dst.ReadPLY(&buf))

	got, _ := dst.At(0)
	assert.False(t, got.HasSH())
	g.ColorSH = [SHCoefficients]mgl32.Vec3{}
	assert.Equal(t, g, got)
}

func TestPLYHeaderCanonical(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCloudFrom([]Gaussian{{}}).WritePLY(&buf))

	header, body, ok := strings.Cut(buf.String(), "end_header\n")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(header, "ply\nformat binary_little_endian 1.0\nelement vertex 1\nproperty float x\n"))
	assert.Len(t, body, 14*4)
}

// buildPLY writes a header with the given properties followed by raw records.
func buildPLY(format string, props []string, count int, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("ply\nformat " + format + " 1.0\ncomment test\n")
	b.WriteString("element vertex " + strconv.Itoa(count) + "\n")
	for _, p := range props {
		b.WriteString("property " + p + "\n")
	}
	b.WriteString("end_header\n")
	b.Write(body)
	return b.Bytes()
}

func TestPLYReadsReorderedMixedTypesBigEndian(t *testing.T) {
	props := []string{
		"double opacity",
		"uchar flags",
		"float rot_3", "float rot_0", "float rot_1", "float rot_2",
		"float sh_dc_b", "float sh_dc_g", "float sh_dc_r",
		"short z", "float y", "float x",
		"float scale_x", "float scale_y", "float scale_z",
	}
	var body []byte
	be := binary.BigEndian
	body = be.AppendUint64(body, math.Float64bits(0.25))
	body = append(body, 7)
	for _, f := range []float32{1, 0, 0, 0, 0.3, 0.2, 0.1} {
		body = be.AppendUint32(body, math.Float32bits(f))
	}
	short := int16(-4)
	body = be.AppendUint16(body, uint16(short))
	for _, f := range []float32{2, 1, 0.5, 0.6, 0.7} {
		body = be.AppendUint32(body, math.Float32bits(f))
	}

	c := NewCloud()
	require.NoError(t, c.ReadPLY(bytes.NewReader(buildPLY("binary_big_endian", props, 1, body))))
	g, _ := c.At(0)
	assert.Equal(t, mgl32.Vec3{1, 2, -4}, g.Position)
	assert.Equal(t, mgl32.Vec3{0.5, 0.6, 0.7}, g.Scale)
	assert.Equal(t, mgl32.QuatIdent(), g.Rotation)
	assert.Equal(t, float32(0.25), g.Opacity)
	assert.Equal(t, mgl32.Vec3{0.1, 0.2, 0.3}, g.ColorDC)
}

func TestPLYFailuresLeaveCloudUntouched(t *testing.T) {
	var valid bytes.Buffer
	require.NoError(t, randomCloud(2).WritePLY(&valid))
	truncated := valid.Bytes()[:valid.Len()-3]

	canonical := make([]string, len(plyFields))
	for i, f := range plyFields {
		canonical[i] = "float " + f
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrInvalidPLY},
		{"no magic", []byte("plx\nend_header\n"), ErrInvalidPLY},
		{"ascii", buildPLY("ascii", canonical, 0, nil), ErrUnsupportedPLY},
		{"unknown format", buildPLY("binary_middle_endian", canonical, 0, nil), ErrInvalidPLY},
		{"missing property", buildPLY("binary_little_endian", canonical[1:], 0, nil), ErrUnsupportedPLY},
		{"list property", buildPLY("binary_little_endian", append([]string{"list uchar int idx"}, canonical...), 0, nil), ErrUnsupportedPLY},
		{"missing vertex", []byte("ply\nformat binary_little_endian 1.0\nend_header\n"), ErrInvalidPLY},
		{"bad count", []byte("ply\nformat binary_little_endian 1.0\nelement vertex -2\nend_header\n"), ErrInvalidPLY},
		{"face before vertex", []byte("ply\nformat binary_little_endian 1.0\nelement face 1\nelement vertex 1\nend_header\n"), ErrUnsupportedPLY},
		{"truncated", truncated, ErrInvalidPLY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := randomCloud(3)
			before := c.Gaussians()
			err := c.ReadPLY(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, c.Gaussians())
		})
	}
}

func TestPLYTrailingElementsIgnored(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, randomCloud(1).WritePLY(&buf))
	data := strings.Replace(buf.String(), "end_header\n",
		"element face 0\nproperty list uchar int vertex_indices\nend_header\n", 1)

	c := NewCloud()
	require.NoError(t, c.ReadPLY(strings.NewReader(data)))
	assert.Equal(t, 1, c.Len())
}

func TestLoadPLYMissingFile(t *testing.T) {
	c := randomCloud(2)
	err := c.LoadPLY(filepath.Join(t.TempDir(), "nope.ply"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 2, c.Len())
}

func TestSavePLYFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir", "out.ply")
	assert.Error(t, randomCloud(1).SavePLY(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 0, "no temp files left behind")
}

func TestSavePLYFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no POSIX permission bits")
	}
	path := filepath.Join(t.TempDir(), "cloud.ply")
	require.NoError(t, randomCloud(2).SavePLY(path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}
