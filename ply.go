package gsplat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// plyFields are the vertex properties a Gaussian is read from, in canonical
// order. rot_0..rot_3 hold the quaternion as x, y, z, w.
var plyFields = [...]string{
	"x", "y", "z",
	"scale_x", "scale_y", "scale_z",
	"rot_0", "rot_1", "rot_2", "rot_3",
	"opacity",
	"sh_dc_r", "sh_dc_g", "sh_dc_b",
}

// maxHeaderLines bounds header parsing on garbage input.
const maxHeaderLines = 4096

type plyScalar uint8

const (
	plyInt8 plyScalar = iota + 1
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

var plyScalarNames = map[string]plyScalar{
	"char": plyInt8, "int8": plyInt8,
	"uchar": plyUint8, "uint8": plyUint8,
	"short": plyInt16, "int16": plyInt16,
	"ushort": plyUint16, "uint16": plyUint16,
	"int": plyInt32, "int32": plyInt32,
	"uint": plyUint32, "uint32": plyUint32,
	"float": plyFloat32, "float32": plyFloat32,
	"double": plyFloat64, "float64": plyFloat64,
}

func (s plyScalar) size() int {
	switch s {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	default:
		return 8
	}
}

func (s plyScalar) decode(b []byte, order binary.ByteOrder) float32 {
	switch s {
	case plyInt8:
		return float32(int8(b[0]))
	case plyUint8:
		return float32(b[0])
	case plyInt16:
		return float32(int16(order.Uint16(b)))
	case plyUint16:
		return float32(order.Uint16(b))
	case plyInt32:
		return float32(int32(order.Uint32(b)))
	case plyUint32:
		return float32(order.Uint32(b))
	case plyFloat32:
		return math.Float32frombits(order.Uint32(b))
	default:
		return float32(math.Float64frombits(order.Uint64(b)))
	}
}

type plyProperty struct {
	name   string
	typ    plyScalar
	offset int
}

type plyHeader struct {
	order  binary.ByteOrder
	count  int
	stride int
	// fields maps each entry of plyFields to its vertex property.
	fields [len(plyFields)]plyProperty
}

// readPLYHeader parses the header up to and including end_header.
func readPLYHeader(br *bufio.Reader) (*plyHeader, error) {
	line, err := readHeaderLine(br)
	if err != nil || line != "ply" {
		return nil, fmt.Errorf("%w: missing ply magic", ErrInvalidPLY)
	}

	h := &plyHeader{count: -1}
	var props []plyProperty
	element := ""
	sawVertex := false

	for n := 0; ; n++ {
		if n > maxHeaderLines {
			return nil, fmt.Errorf("%w: header too long", ErrInvalidPLY)
		}
		line, err := readHeaderLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: header: %w", ErrInvalidPLY, err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return h.finish(props)
		case "comment", "obj_info":
		case "format":
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: bad format line %q", ErrInvalidPLY, line)
			}
			switch parts[1] {
			case "binary_little_endian":
				h.order = binary.LittleEndian
			case "binary_big_endian":
				h.order = binary.BigEndian
			case "ascii":
				return nil, fmt.Errorf("%w: ascii encoding", ErrUnsupportedPLY)
			default:
				return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidPLY, parts[1])
			}
		case "element":
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: bad element line %q", ErrInvalidPLY, line)
			}
			element = parts[1]
			if element != "vertex" {
				if !sawVertex {
					return nil, fmt.Errorf("%w: element %q precedes vertex", ErrUnsupportedPLY, element)
				}
				continue
			}
			if sawVertex {
				return nil, fmt.Errorf("%w: duplicate vertex element", ErrInvalidPLY)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: bad vertex count %q", ErrInvalidPLY, parts[2])
			}
			h.count = count
			sawVertex = true
		case "property":
			if element != "vertex" {
				continue
			}
			if len(parts) >= 2 && parts[1] == "list" {
				return nil, fmt.Errorf("%w: list property on vertex", ErrUnsupportedPLY)
			}
			if len(parts) != 3 {
				return nil, fmt.Errorf("%w: bad property line %q", ErrInvalidPLY, line)
			}
			typ, ok := plyScalarNames[parts[1]]
			if !ok {
				return nil, fmt.Errorf("%w: unknown property type %q", ErrInvalidPLY, parts[1])
			}
			props = append(props, plyProperty{name: parts[2], typ: typ, offset: h.stride})
			h.stride += typ.size()
		default:
			return nil, fmt.Errorf("%w: unexpected header keyword %q", ErrInvalidPLY, parts[0])
		}
	}
}

func (h *plyHeader) finish(props []plyProperty) (*plyHeader, error) {
	if h.order == nil {
		return nil, fmt.Errorf("%w: missing format line", ErrInvalidPLY)
	}
	if h.count < 0 {
		return nil, fmt.Errorf("%w: missing vertex element", ErrInvalidPLY)
	}
	for i, name := range plyFields {
		found := false
		for _, p := range props {
			if p.name == name {
				h.fields[i] = p
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: missing vertex property %q", ErrUnsupportedPLY, name)
		}
	}
	return h, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// decodePLY reads a full PLY stream into a new slice.
func decodePLY(r io.Reader) ([]Gaussian, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	h, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	// Grow as records arrive so a lying header cannot force a huge allocation.
	gs := make([]Gaussian, 0, min(h.count, 1<<16))
	rec := make([]byte, h.stride)
	var v [len(plyFields)]float32
	for i := 0; i < h.count; i++ {
		if _, err := io.ReadFull(br, rec); err != nil {
			return nil, fmt.Errorf("%w: vertex %d of %d: %w", ErrInvalidPLY, i, h.count, err)
		}
		for f, p := range h.fields {
			v[f] = p.typ.decode(rec[p.offset:], h.order)
		}
		gs = append(gs, Gaussian{
			Position: mgl32.Vec3{v[0], v[1], v[2]},
			Scale:    mgl32.Vec3{v[3], v[4], v[5]},
			Rotation: mgl32.Quat{W: v[9], V: mgl32.Vec3{v[6], v[7], v[8]}},
			Opacity:  v[10],
			ColorDC:  mgl32.Vec3{v[11], v[12], v[13]},
		})
	}
	return gs, nil
}

// ReadPLY replaces the contents of c with the Gaussians in r.
//
// Only the 14 base properties are read; higher-order SH coefficients are not
// part of the format and come back zero. On error c is left unchanged.
func (c *Cloud) ReadPLY(r io.Reader) error {
	gs, err := decodePLY(r)
	if err != nil {
		return err
	}
	c.gaussians = gs
	c.markDirty()
	return nil
}

// WritePLY writes c in canonical binary little-endian form.
// ColorSH is not persisted.
func (c *Cloud) WritePLY(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", len(c.gaussians))
	for _, name := range plyFields {
		fmt.Fprintf(bw, "property float %s\n", name)
	}
	bw.WriteString("end_header\n")

	var rec [len(plyFields) * 4]byte
	for i := range c.gaussians {
		g := &c.gaussians[i]
		v := [len(plyFields)]float32{
			g.Position[0], g.Position[1], g.Position[2],
			g.Scale[0], g.Scale[1], g.Scale[2],
			g.Rotation.V[0], g.Rotation.V[1], g.Rotation.V[2], g.Rotation.W,
			g.Opacity,
			g.ColorDC[0], g.ColorDC[1], g.ColorDC[2],
		}
		for f, x := range v {
			binary.LittleEndian.PutUint32(rec[f*4:], math.Float32bits(x))
		}
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("gsplat: write PLY: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("gsplat: write PLY: %w", err)
	}
	return nil
}

// LoadPLY replaces the contents of c with the PLY file at path.
// On error c is left unchanged.
func (c *Cloud) LoadPLY(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("gsplat: load PLY: %w", err)
	}
	defer f.Close()

	if err := c.ReadPLY(bufio.NewReaderSize(f, 1<<20)); err != nil {
		return fmt.Errorf("gsplat: load %s: %w", path, err)
	}
	Logger().Debug("gsplat: loaded PLY", "path", path, "gaussians", len(c.gaussians))
	return nil
}

// SavePLY writes c to path. The file is written to a temporary sibling and
// renamed into place, so a failed save leaves any existing file intact.
func (c *Cloud) SavePLY(path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("gsplat: save PLY: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	// CreateTemp makes the file owner-only.
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("gsplat: save PLY: %w", err)
	}
	if err = c.WritePLY(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("gsplat: save PLY: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("gsplat: save PLY: %w", err)
	}
	return nil
}
