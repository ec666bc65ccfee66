package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"mini-scene/internal/resource"
	"mini-scene/pkg/objloader"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	mvp     mgl32.Mat4
	buffer  resource.Buffer
	texture resource.Texture
	count   int32
}

// recordingBackend keeps the real matrix state and records everything
// else instead of talking to GL.
type recordingBackend struct {
	*Transforms

	ops      []string
	mvps     []mgl32.Mat4
	maxDepth int

	mvp      mgl32.Mat4
	vertices resource.Buffer
	texture  resource.Texture
	draws    []drawCall
}

func newRecordingBackend(mode MatrixMode) *recordingBackend {
	return &recordingBackend{Transforms: NewTransforms(mode)}
}

func (r *recordingBackend) Activate() { r.ops = append(r.ops, "activate") }
func (r *recordingBackend) Clear()    { r.ops = append(r.ops, "clear") }

func (r *recordingBackend) PushMatrix(m mgl32.Mat4) {
	r.Transforms.PushMatrix(m)
	r.ops = append(r.ops, "push")
	r.maxDepth = max(r.maxDepth, r.MatrixDepth())
}

func (r *recordingBackend) PopMatrix() {
	r.Transforms.PopMatrix()
	r.ops = append(r.ops, "pop")
}

func (r *recordingBackend) SetModelMatrix(m mgl32.Mat4) {
	r.mvp = r.ModelViewProjection(m)
	r.mvps = append(r.mvps, r.mvp)
}

func (r *recordingBackend) SetVertices(b resource.Buffer)    { r.vertices = b }
func (r *recordingBackend) SetTextureCoords(resource.Buffer) {}
func (r *recordingBackend) SetTexture0(tex resource.Texture) { r.texture = tex }

func (r *recordingBackend) DrawArray(offset, count int32) {
	r.draws = append(r.draws, drawCall{mvp: r.mvp, buffer: r.vertices, texture: r.texture, count: count})
	r.texture = 0
}

func (r *recordingBackend) count(op string) int {
	n := 0
	for _, o := range r.ops {
		if o == op {
			n++
		}
	}
	return n
}

// probe is an entity that records its lifecycle.
type probe struct {
	Base
	name    string
	trace   *[]string
	initErr error

	inits    int
	updates  int
	disposed int
	lastDT   float64
}

func newProbe(name string, trace *[]string) *probe {
	return &probe{name: name, trace: trace}
}

func (p *probe) record(event string) {
	if p.trace != nil {
		*p.trace = append(*p.trace, event+":"+p.name)
	}
}

func (p *probe) Init(context.Context, *resource.Manager) error {
	p.inits++
	p.record("init")
	return p.initErr
}

func (p *probe) Update(dt float64) {
	p.updates++
	p.lastDT = dt
}

func (p *probe) Render(b RenderBackend) {
	b.SetModelMatrix(p.MakeMatrix())
	p.record("render")
}

func (p *probe) Dispose() { p.disposed++ }

type fakeGPU struct {
	next        uint32
	liveBuffers map[resource.Buffer]bool
	liveTex     map[resource.Texture]bool
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{liveBuffers: map[resource.Buffer]bool{}, liveTex: map[resource.Texture]bool{}}
}

func (g *fakeGPU) CreateVertexBuffer([]float32) (resource.Buffer, error) {
	g.next++
	b := resource.Buffer(g.next)
	g.liveBuffers[b] = true
	return b, nil
}

func (g *fakeGPU) DeleteBuffer(b resource.Buffer) {
	if !g.liveBuffers[b] {
		panic("double delete of buffer")
	}
	delete(g.liveBuffers, b)
}

func (g *fakeGPU) CreateTexture(*image.RGBA) (resource.Texture, error) {
	g.next++
	t := resource.Texture(g.next)
	g.liveTex[t] = true
	return t, nil
}

func (g *fakeGPU) DeleteTexture(t resource.Texture) {
	if !g.liveTex[t] {
		panic("double delete of texture")
	}
	delete(g.liveTex, t)
}

const houseObj = `mtllib house.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
o walls
usemtl brick
f 1/1 2/2 3/3 4/4
o roof
f 1 2 3
o nothing
`

func testManager(t *testing.T) (*resource.Manager, *fakeGPU) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{200, 100, 50, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	fsys := fstest.MapFS{
		"3d/house.obj": {Data: []byte(houseObj)},
		"3d/house.mtl": {Data: []byte("newmtl brick\nKd 0.5 0.5 0.5\nmap_Kd brick.png\n")},
		"3d/brick.png": {Data: buf.Bytes()},
	}
	gpu := newFakeGPU()
	m := resource.NewManager(gpu, objloader.NewLoader(fsys), resource.FSImageSource{FS: fsys},
		resource.WithLogger(discardLogger()))
	return m, gpu
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
