package models

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/plyview/pkg/math3d"
)

// PLYHeader describes what a PLY header declared.
type PLYHeader struct {
	Format      string   // "ascii" when declared
	Version     string   // e.g. "1.0"
	VertexCount int      // -1 when no vertex element is declared
	FaceCount   int      // expected triangle count, 0 when not declared
	Properties  []string // vertex property names in declaration order
	Comments    []string // comment and obj_info lines
}

// PLYDecoder reads ASCII PLY meshes.
//
// By default the decoder is lenient like most hand-written PLY readers:
// malformed numbers read as zero and the declared counts are not enforced.
// With Strict set, those conditions are reported as FormatErrors instead.
type PLYDecoder struct {
	Strict bool
}

// LoadPLY decodes the PLY file at path with a lenient decoder.
func LoadPLY(path string) (*Mesh, error) {
	var d PLYDecoder
	m, _, err := d.Load(path)
	return m, err
}

// Load opens path and decodes it.
func (d *PLYDecoder) Load(path string) (*Mesh, PLYHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, PLYHeader{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	m, h, err := d.Decode(f)
	if err != nil {
		var ioErr *IOError
		if errors.As(err, &ioErr) && ioErr.Path == "" {
			ioErr.Path = path
		}
		var fe FormatError
		if errors.As(err, &fe) {
			err = fmt.Errorf("%s: %w", path, err)
		}
		return nil, h, err
	}
	m.Name = filepath.Base(path)
	return m, h, nil
}

// Decode reads a PLY mesh from r.
func (d *PLYDecoder) Decode(r io.Reader) (*Mesh, PLYHeader, error) {
	p := &plyParser{
		strict: d.Strict,
		header: PLYHeader{VertexCount: -1},
		mesh:   NewMesh(""),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for p.state != stateDone && sc.Scan() {
		p.line++
		if err := p.feed(sc.Text()); err != nil {
			return nil, p.header, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, p.header, &IOError{Op: "read", Err: err}
	}
	if err := p.finish(); err != nil {
		return nil, p.header, err
	}

	p.mesh.CalculateBounds()
	if d.Strict {
		if err := p.mesh.Validate(); err != nil {
			return nil, p.header, FormatError(err.Error())
		}
	}
	return p.mesh, p.header, nil
}

// plyState is the decoder position within the file.
type plyState int

const (
	stateHeader plyState = iota
	stateVertices
	stateFaces
	stateDone
)

// Vertex attribute slots, in the fixed record order x y z nx ny nz r g b u v.
const (
	slotX = iota
	slotY
	slotZ
	slotNX
	slotNY
	slotNZ
	slotR
	slotG
	slotB
	slotU
	slotV
	numSlots

	slotSkip = -1
)

// fixedLayout is used when the header declares no vertex properties.
var fixedLayout = []int{slotX, slotY, slotZ, slotNX, slotNY, slotNZ, slotR, slotG, slotB, slotU, slotV}

var propertySlots = map[string]int{
	"x": slotX, "y": slotY, "z": slotZ,
	"nx": slotNX, "ny": slotNY, "nz": slotNZ,
	"red": slotR, "r": slotR, "diffuse_red": slotR,
	"green": slotG, "g": slotG, "diffuse_green": slotG,
	"blue": slotB, "b": slotB, "diffuse_blue": slotB,
	"u": slotU, "s": slotU, "texture_u": slotU, "texture_s": slotU,
	"v": slotV, "t": slotV, "texture_v": slotV, "texture_t": slotV,
}

// maxPrealloc bounds the capacity reserved from declared counts, which come
// straight from the file. Larger meshes grow by append.
const maxPrealloc = 1 << 16

type plyParser struct {
	strict bool
	header PLYHeader
	mesh   *Mesh

	state     plyState
	line      int
	element   string // element whose properties are being declared
	layout    []int
	remaining int // records left in the current state, -1 for unbounded
}

func (p *plyParser) errorf(format string, args ...any) error {
	return FormatError(fmt.Sprintf("line %d: ", p.line) + fmt.Sprintf(format, args...))
}

func (p *plyParser) feed(raw string) error {
	line := strings.TrimSpace(raw)

	switch p.state {
	case stateHeader:
		return p.headerLine(line)
	case stateVertices:
		if line == "" {
			return nil
		}
		if err := p.vertexLine(line); err != nil {
			return err
		}
		if p.remaining > 0 {
			p.remaining--
			if p.remaining == 0 {
				p.enterFaces()
			}
		}
	case stateFaces:
		if line == "" {
			return nil
		}
		if err := p.faceLine(line); err != nil {
			return err
		}
		p.remaining--
		if p.remaining == 0 {
			p.state = stateDone
		}
	}
	return nil
}

func (p *plyParser) headerLine(line string) error {
	if p.line == 1 && line != "ply" && p.strict {
		return p.errorf("missing ply signature")
	}
	if line == "end_header" {
		p.endHeader()
		return nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "format":
		if len(fields) < 2 {
			if p.strict {
				return p.errorf("format line without a format")
			}
			return nil
		}
		p.header.Format = fields[1]
		if len(fields) > 2 {
			p.header.Version = fields[2]
		}
		if p.header.Format != "ascii" {
			return p.errorf("unsupported format %q, only ascii is supported", p.header.Format)
		}
	case "comment", "obj_info":
		p.header.Comments = append(p.header.Comments, strings.Join(fields[1:], " "))
	case "element":
		if len(fields) < 2 {
			if p.strict {
				return p.errorf("element line needs a name and a count")
			}
			p.element = ""
			return nil
		}
		p.element = fields[1]
		// A missing or malformed count reads as zero when lenient.
		n := 0
		if len(fields) < 3 {
			if p.strict {
				return p.errorf("element %s has no count", p.element)
			}
		} else if v, err := strconv.Atoi(fields[2]); err == nil && v >= 0 {
			n = v
		} else if p.strict {
			return p.errorf("bad %s count %q", p.element, fields[2])
		}
		switch p.element {
		case "vertex":
			p.header.VertexCount = n
		case "face":
			p.header.FaceCount = n
		default:
			if p.strict {
				return p.errorf("unsupported element %q", p.element)
			}
		}
	case "property":
		if p.element == "vertex" && len(fields) >= 3 {
			p.header.Properties = append(p.header.Properties, fields[len(fields)-1])
		}
	}
	return nil
}

func (p *plyParser) endHeader() {
	p.layout = fixedLayout
	if len(p.header.Properties) > 0 {
		p.layout = make([]int, len(p.header.Properties))
		for i, name := range p.header.Properties {
			slot, ok := propertySlots[name]
			if !ok {
				slot = slotSkip
			}
			p.layout[i] = slot
		}
	}

	switch {
	case p.header.VertexCount < 0:
		// Without a declared count every remaining line is a vertex.
		p.state = stateVertices
		p.remaining = -1
	case p.header.VertexCount == 0:
		p.enterFaces()
	default:
		p.state = stateVertices
		p.remaining = p.header.VertexCount
		p.mesh.Vertices = make([]MeshVertex, 0, min(p.header.VertexCount, maxPrealloc))
	}
}

func (p *plyParser) enterFaces() {
	if p.header.FaceCount == 0 {
		p.state = stateDone
		return
	}
	p.state = stateFaces
	p.remaining = p.header.FaceCount
	p.mesh.Faces = make([]Face, 0, min(p.header.FaceCount, maxPrealloc))
}

func (p *plyParser) vertexLine(line string) error {
	fields := strings.Fields(line)
	if p.strict && len(fields) < len(p.layout) {
		return p.errorf("vertex has %d fields, want %d", len(fields), len(p.layout))
	}

	var vals [numSlots]float64
	for i, slot := range p.layout {
		if slot == slotSkip || i >= len(fields) {
			continue
		}
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			if p.strict {
				return p.errorf("bad number %q", fields[i])
			}
			f = 0
		}
		vals[slot] = f
	}

	p.mesh.Vertices = append(p.mesh.Vertices, MeshVertex{
		Position: math3d.V3(vals[slotX], vals[slotY], vals[slotZ]),
		Normal:   math3d.V3(vals[slotNX], vals[slotNY], vals[slotNZ]),
		Color:    math3d.V3(vals[slotR], vals[slotG], vals[slotB]),
		UV:       math3d.V2(vals[slotU], vals[slotV]),
	})
	return nil
}

func (p *plyParser) faceLine(line string) error {
	fields := strings.Fields(line)
	count, err := strconv.Atoi(fields[0])
	if err != nil && p.strict {
		return p.errorf("bad face vertex count %q", fields[0])
	}
	if count != 3 {
		// Only triangles are kept; the record still counts against the total.
		return nil
	}
	if p.strict && len(fields) < 4 {
		return p.errorf("triangle has %d indices, want 3", len(fields)-1)
	}

	var f Face
	for i := range 3 {
		if i+1 >= len(fields) {
			break
		}
		idx, err := strconv.Atoi(fields[i+1])
		if err != nil {
			if p.strict {
				return p.errorf("bad vertex index %q", fields[i+1])
			}
			idx = 0
		}
		f.V[i] = idx
	}
	p.mesh.Faces = append(p.mesh.Faces, f)
	return nil
}

// finish reports counts that were declared but not delivered.
func (p *plyParser) finish() error {
	if !p.strict {
		return nil
	}
	switch p.state {
	case stateHeader:
		return FormatError("missing end_header")
	case stateVertices:
		if p.remaining > 0 {
			return FormatError(fmt.Sprintf("expected %d vertices, got %d", p.header.VertexCount, len(p.mesh.Vertices)))
		}
	case stateFaces:
		return FormatError(fmt.Sprintf("expected %d faces, got %d", p.header.FaceCount, p.header.FaceCount-p.remaining))
	}
	return nil
}
