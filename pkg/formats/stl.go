package formats

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"strconv"
	"strings"

	"github.com/pranavRajmane/Ayrton/pkg/encoding"
	"github.com/pranavRajmane/Ayrton/pkg/math"
	"github.com/pranavRajmane/Ayrton/pkg/scene"
	"github.com/pranavRajmane/Ayrton/pkg/view"
)

// STL format errors.
var (
	ErrTruncatedSTLData = errors.New("truncated STL data")
	ErrInvalidSTL       = errors.New("invalid STL data")
)

// Binary STL layout.
const (
	stlHeaderSize   = 80
	stlCountSize    = 4
	stlTriangleSize = 50 // normal + 3 vertices as float32, uint16 attribute
)

// STLEncoder writes triangle soups in the ASCII or binary STL format.
type STLEncoder struct {
	Binary bool
	// Header is written into the 80-byte binary header. Empty means a
	// header naming the view.
	Header string
}

// CanExport implements Encoder.
func (e *STLEncoder) CanExport(format FileFormat, ext string) bool {
	return NormalizeExt(ext) == "stl" && (format == FormatBinary) == e.Binary
}

// ExportContent implements Encoder.
func (e *STLEncoder) ExportContent(ctx context.Context, v *view.View) ([]Artifact, error) {
	name := baseName(v) + ".stl"
	if e.Binary {
		data, err := e.encodeBinary(ctx, v)
		if err != nil {
			return nil, err
		}
		return []Artifact{{Name: name, Data: data}}, nil
	}
	data, err := encodeASCIISTL(ctx, v)
	if err != nil {
		return nil, err
	}
	return []Artifact{{Name: name, Data: data, Text: true}}, nil
}

// BinarySTLSize returns the byte length of a binary STL with n triangles.
func BinarySTLSize(n int) int {
	return stlHeaderSize + stlCountSize + stlTriangleSize*n
}

func (e *STLEncoder) encodeBinary(ctx context.Context, v *view.View) ([]byte, error) {
	n := v.TriangleCount()
	if uint64(n) > gomath.MaxUint32 || n > (gomath.MaxInt-stlHeaderSize-stlCountSize)/stlTriangleSize {
		return nil, fmt.Errorf("binary STL with %d triangles: %w", n, ErrSerializationOverflow)
	}

	header := e.Header
	if header == "" {
		header = "binary STL " + v.Name()
	}
	// A header starting with "solid" makes readers sniff the file as ASCII.
	if strings.HasPrefix(strings.ToLower(header), "solid") {
		header = "binary " + header
	}

	buf := make([]byte, BinarySTLSize(n))
	copy(buf, encoding.ToFixedString(header, stlHeaderSize))
	binary.LittleEndian.PutUint32(buf[stlHeaderSize:], uint32(n))

	off := stlHeaderSize + stlCountSize
	put := func(vec math.Vec3) {
		binary.LittleEndian.PutUint32(buf[off:], gomath.Float32bits(vec.X))
		binary.LittleEndian.PutUint32(buf[off+4:], gomath.Float32bits(vec.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], gomath.Float32bits(vec.Z))
		off += 12
	}

	var err error
	v.EnumerateTriangles(func(t view.Triangle) bool {
		if err = checkCancel(ctx, t.Ordinal); err != nil {
			return false
		}
		put(t.Normal)
		for _, p := range t.Positions {
			put(p)
		}
		off += 2 // attribute byte count, always zero
		return true
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeASCIISTL(ctx context.Context, v *view.View) ([]byte, error) {
	name := baseName(v)
	var b bytes.Buffer
	// Roughly 250 bytes per facet.
	b.Grow(64 + 250*v.TriangleCount())

	writeVec := func(prefix string, vec math.Vec3) {
		b.WriteString(prefix)
		b.WriteString(encoding.FormatFloat32E(vec.X))
		b.WriteByte(' ')
		b.WriteString(encoding.FormatFloat32E(vec.Y))
		b.WriteByte(' ')
		b.WriteString(encoding.FormatFloat32E(vec.Z))
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "solid %s\n", name)
	var err error
	v.EnumerateTriangles(func(t view.Triangle) bool {
		if err = checkCancel(ctx, t.Ordinal); err != nil {
			return false
		}
		writeVec("  facet normal ", t.Normal)
		b.WriteString("    outer loop\n")
		for _, p := range t.Positions {
			writeVec("      vertex ", p)
		}
		b.WriteString("    endloop\n")
		b.WriteString("  endfacet\n")
		return true
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, "endsolid %s\n", name)
	return b.Bytes(), nil
}

// STLTriangle is one facet read from an STL file.
type STLTriangle struct {
	Normal    math.Vec3
	Vertices  [3]math.Vec3
	Attribute uint16 // binary only
}

// STL is a parsed STL file.
type STL struct {
	Binary    bool
	Name      string // ASCII solid name
	Header    string // binary header, null padding removed
	Triangles []STLTriangle
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// ParseSTL parses ASCII or binary STL data. Binary is detected by the
// declared triangle count matching the data length, since some binary
// writers start their header with "solid".
func ParseSTL(data []byte) (*STL, error) {
	if len(data) >= stlHeaderSize+stlCountSize {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == uint64(stlHeaderSize+stlCountSize)+uint64(n)*stlTriangleSize {
			return parseBinarySTL(data, int(n))
		}
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		return parseASCIISTL(data)
	}
	if len(data) < stlHeaderSize+stlCountSize {
		return nil, ErrTruncatedSTLData
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return nil, fmt.Errorf("%w: %d triangles declared, %d bytes present", ErrTruncatedSTLData, n, len(data))
}

func parseBinarySTL(data []byte, n int) (*STL, error) {
	stl := &STL{
		Binary:    true,
		Header:    strings.TrimRight(encoding.FixedString(data[:stlHeaderSize]), " "),
		Triangles: make([]STLTriangle, n),
	}
	r := bytes.NewReader(data[stlHeaderSize+stlCountSize:])
	for i := range stl.Triangles {
		if err := binary.Read(r, binary.LittleEndian, &stl.Triangles[i]); err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i, ErrTruncatedSTLData)
		}
	}
	return stl, nil
}

func parseASCIISTL(data []byte) (*STL, error) {
	stl := &STL{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		cur     STLTriangle
		corners int
		inFacet bool
		ended   bool
		line    int
	)
	parseVec := func(fields []string) (math.Vec3, error) {
		if len(fields) != 3 {
			return math.Vec3{}, fmt.Errorf("line %d: %w: want 3 coordinates, got %d", line, ErrInvalidSTL, len(fields))
		}
		var out [3]float32
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return math.Vec3{}, fmt.Errorf("line %d: %w: %v", line, ErrInvalidSTL, err)
			}
			out[i] = float32(x)
		}
		return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
	}

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			stl.Name = strings.Join(fields[1:], " ")
		case "facet":
			if inFacet {
				return nil, fmt.Errorf("line %d: %w: nested facet", line, ErrInvalidSTL)
			}
			if len(fields) < 2 || fields[1] != "normal" {
				return nil, fmt.Errorf("line %d: %w: expected facet normal", line, ErrInvalidSTL)
			}
			n, err := parseVec(fields[2:])
			if err != nil {
				return nil, err
			}
			cur, corners, inFacet = STLTriangle{Normal: n}, 0, true
		case "vertex":
			if !inFacet || corners == 3 {
				return nil, fmt.Errorf("line %d: %w: unexpected vertex", line, ErrInvalidSTL)
			}
			p, err := parseVec(fields[1:])
			if err != nil {
				return nil, err
			}
			cur.Vertices[corners] = p
			corners++
		case "endfacet":
			if !inFacet || corners != 3 {
				return nil, fmt.Errorf("line %d: %w: facet with %d vertices", line, ErrInvalidSTL, corners)
			}
			stl.Triangles = append(stl.Triangles, cur)
			inFacet = false
		case "endsolid":
			ended = true
		case "outer", "endloop":
		default:
			return nil, fmt.Errorf("line %d: %w: unknown keyword %q", line, ErrInvalidSTL, fields[0])
		}
		if ended {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	if inFacet || !ended {
		return nil, ErrTruncatedSTLData
	}
	return stl, nil
}

// ToModel builds a model with one node placing one mesh. Coincident
// vertices are merged.
func (s *STL) ToModel(name string) *scene.Model {
	if name == "" {
		name = s.Name
	}
	m := scene.NewModel(name)
	mesh := scene.NewMesh(name)

	index := make(map[math.Vec3]int)
	for _, t := range s.Triangles {
		var v [3]int
		for c, p := range t.Vertices {
			i, ok := index[p]
			if !ok {
				i = mesh.AddVertex(p)
				index[p] = i
			}
			v[c] = i
		}
		mesh.AddTriangle(scene.NewTriangle(v[0], v[1], v[2]))
	}

	idx := m.AddMesh(mesh)
	n, _ := m.AddNode(scene.RootID, name)
	_, _ = n.AddMesh(idx)
	return m
}
