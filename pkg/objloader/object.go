package objloader

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Document is a parsed OBJ file. Meshes carry no materials until
// BindMaterials is called with the contents of MaterialLib.
type Document struct {
	MaterialLib string
	Meshes      []Mesh

	materialNames []string
}

type faceItem struct {
	v, vt, vn int
}

type objectItem struct {
	name     string
	faces    [][]faceItem
	smooth   bool
	material string
}

type objParser struct {
	name string
	line int

	// Index 0 of every list is a zero entry so that absent texture
	// coordinates resolve to (0, 0).
	positions []float32 // 4 per vertex
	texCoords []float32 // 3 per coordinate
	normals   []float32 // 3 per normal

	mtllib  string
	objects []*objectItem
	current *objectItem
}

// ParseObject reads Wavefront OBJ data. name labels errors and the
// implicit object that collects faces declared before any "o" line.
func ParseObject(r io.Reader, name string) (*Document, error) {
	p := &objParser{
		name:      name,
		positions: []float32{0, 0, 0, 0},
		texCoords: []float32{0, 0, 0},
		normals:   []float32{0, 0, 0},
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, p.line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", name)
	}

	doc := &Document{MaterialLib: p.mtllib}
	for _, obj := range p.objects {
		doc.Meshes = append(doc.Meshes, p.build(obj))
		doc.materialNames = append(doc.materialNames, obj.material)
	}
	return doc, nil
}

// BindMaterials attaches materials by the name each object selected with
// "usemtl". Objects naming an unknown material keep a nil Material.
func (d *Document) BindMaterials(materials map[string]*Material) {
	for i, name := range d.materialNames {
		d.Meshes[i].Material = materials[name]
	}
}

func (p *objParser) parseLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	token, params := fields[0], fields[1:]

	switch token {
	case "v":
		xyz, err := parseFloats(params, 3, 4)
		if err != nil {
			return err
		}
		w := float32(1)
		if len(xyz) == 4 {
			w = xyz[3]
		}
		p.positions = append(p.positions, xyz[0], xyz[1], xyz[2], w)
	case "vt":
		vals, err := parseFloats(params, 1, 3)
		if err != nil {
			return err
		}
		uvw := [3]float32{0, 0, 1}
		copy(uvw[:], vals)
		p.texCoords = append(p.texCoords, uvw[:]...)
	case "vn":
		n, err := parseFloats(params, 3, 3)
		if err != nil {
			return err
		}
		unit := normalize([3]float32{n[0], n[1], n[2]})
		p.normals = append(p.normals, unit[:]...)
	case "mtllib":
		if len(params) == 0 {
			return errors.New("mtllib without file name")
		}
		p.mtllib = strings.Join(params, " ")
	case "o", "g":
		name := strings.Join(params, " ")
		p.current = &objectItem{name: name, smooth: true}
		p.objects = append(p.objects, p.current)
	case "f":
		face, err := p.parseFace(params)
		if err != nil {
			return err
		}
		obj := p.object()
		obj.faces = append(obj.faces, face)
	case "s":
		if len(params) > 0 {
			p.object().smooth = params[0] == "on" || params[0] == "1"
		}
	case "usemtl":
		if len(params) > 0 {
			p.object().material = params[0]
		}
	}
	return nil
}

// object returns the object faces currently belong to, creating the
// implicit file-level object on first use.
func (p *objParser) object() *objectItem {
	if p.current == nil {
		p.current = &objectItem{name: p.name, smooth: true}
		p.objects = append(p.objects, p.current)
	}
	return p.current
}

func (p *objParser) parseFace(params []string) ([]faceItem, error) {
	if len(params) < 3 {
		return nil, errors.Errorf("face with %d vertices", len(params))
	}
	face := make([]faceItem, 0, len(params))
	for _, s := range params {
		item, err := p.parseFaceItem(s)
		if err != nil {
			return nil, err
		}
		face = append(face, item)
	}
	return face, nil
}

func (p *objParser) parseFaceItem(s string) (faceItem, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return faceItem{}, errors.Errorf("failed to parse face item %q", s)
	}
	var (
		item faceItem
		err  error
	)
	if item.v, err = p.resolve(parts[0], len(p.positions)/4, false); err != nil {
		return faceItem{}, errors.Wrapf(err, "face item %q vertex", s)
	}
	if len(parts) > 1 {
		if item.vt, err = p.resolve(parts[1], len(p.texCoords)/3, true); err != nil {
			return faceItem{}, errors.Wrapf(err, "face item %q texcoord", s)
		}
	}
	if len(parts) > 2 {
		if item.vn, err = p.resolve(parts[2], len(p.normals)/3, true); err != nil {
			return faceItem{}, errors.Wrapf(err, "face item %q normal", s)
		}
	}
	return item, nil
}

// resolve turns an OBJ index into a position in a zero-padded list of n
// entries. Negative indices count back from the last entry.
func (p *objParser) resolve(s string, n int, optional bool) (int, error) {
	if s == "" {
		if optional {
			return 0, nil
		}
		return 0, errors.New("missing index")
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrap(err, "bad index")
	}
	if i < 0 {
		i += n
	}
	if i <= 0 || i >= n {
		return 0, errors.Errorf("index %s out of range (%d defined)", s, n-1)
	}
	return i, nil
}

func (p *objParser) build(obj *objectItem) Mesh {
	m := Mesh{Name: obj.name, Box: emptyBox(), Smooth: obj.smooth}
	for _, face := range obj.faces {
		// Triangles are copied as-is, quads become (0,1,2)(0,2,3) and
		// larger polygons are fanned the same way.
		for i := 1; i+1 < len(face); i++ {
			a, b, c := face[0], face[i], face[i+1]
			n := p.faceNormal(a, b, c)
			p.copyVertex(&m, a, n)
			p.copyVertex(&m, b, n)
			p.copyVertex(&m, c, n)
		}
	}
	if m.Box.Empty() {
		m.Box = BoundingBox{}
	}
	return m
}

// copyVertex appends one vertex. Vertices without a "vn" reference take
// the normal of the triangle they belong to.
func (p *objParser) copyVertex(m *Mesh, item faceItem, faceNormal [3]float32) {
	v := p.positions[item.v*4 : item.v*4+4]
	t := p.texCoords[item.vt*3 : item.vt*3+2]
	m.Box.extend(v[0], v[1], v[2])
	m.Buffer = append(m.Buffer, v[0], v[1], v[2], v[3], t[0], t[1])
	if item.vn != 0 {
		m.Normals = append(m.Normals, p.normals[item.vn*3:item.vn*3+3]...)
	} else {
		m.Normals = append(m.Normals, faceNormal[:]...)
	}
}

// faceNormal is the unit normal of a counter-clockwise triangle, or zero
// for a degenerate one.
func (p *objParser) faceNormal(a, b, c faceItem) [3]float32 {
	pa := p.positions[a.v*4 : a.v*4+3]
	pb := p.positions[b.v*4 : b.v*4+3]
	pc := p.positions[c.v*4 : c.v*4+3]
	u := [3]float32{pb[0] - pa[0], pb[1] - pa[1], pb[2] - pa[2]}
	w := [3]float32{pc[0] - pa[0], pc[1] - pa[1], pc[2] - pa[2]}
	return normalize([3]float32{
		u[1]*w[2] - u[2]*w[1],
		u[2]*w[0] - u[0]*w[2],
		u[0]*w[1] - u[1]*w[0],
	})
}

func normalize(n [3]float32) [3]float32 {
	l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 || math32.IsInf(l, 0) || math32.IsNaN(l) {
		return [3]float32{}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}

func parseFloats(params []string, minN, maxN int) ([]float32, error) {
	if len(params) < minN {
		return nil, errors.Errorf("want at least %d values, got %d", minN, len(params))
	}
	if len(params) > maxN {
		params = params[:maxN]
	}
	out := make([]float32, len(params), maxN)
	for i, s := range params {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		out[i] = float32(f)
	}
	return out, nil
}
