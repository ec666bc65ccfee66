package resource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"mini-scene/pkg/objloader"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGPU records every call in order so tests can check that destruction
// happens before reallocation.
type fakeGPU struct {
	next        uint32
	calls       []string
	liveBuffers map[Buffer]bool
	liveTex     map[Texture]bool

	failBufferAt int   // 1-based CreateVertexBuffer call to fail, 0 = never
	failErr      error // returned by the failing call instead of ErrGPUAllocation
	bufferCalls  int
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{liveBuffers: map[Buffer]bool{}, liveTex: map[Texture]bool{}}
}

func (g *fakeGPU) CreateVertexBuffer(data []float32) (Buffer, error) {
	g.bufferCalls++
	if g.failBufferAt == g.bufferCalls {
		g.calls = append(g.calls, "create-buffer-failed")
		if g.failErr != nil {
			return 0, g.failErr
		}
		return 0, errors.Wrap(ErrGPUAllocation, "glGenBuffers returned 0")
	}
	g.next++
	b := Buffer(g.next)
	g.liveBuffers[b] = true
	g.calls = append(g.calls, "create-buffer")
	return b, nil
}

func (g *fakeGPU) DeleteBuffer(b Buffer) {
	if !g.liveBuffers[b] {
		panic("double delete of buffer")
	}
	delete(g.liveBuffers, b)
	g.calls = append(g.calls, "delete-buffer")
}

func (g *fakeGPU) CreateTexture(img *image.RGBA) (Texture, error) {
	g.next++
	t := Texture(g.next)
	g.liveTex[t] = true
	g.calls = append(g.calls, "create-texture")
	return t, nil
}

func (g *fakeGPU) DeleteTexture(t Texture) {
	if !g.liveTex[t] {
		panic("double delete of texture")
	}
	delete(g.liveTex, t)
	g.calls = append(g.calls, "delete-texture")
}

func (g *fakeGPU) count(call string) int {
	n := 0
	for _, c := range g.calls {
		if c == call {
			n++
		}
	}
	return n
}

type countingSource struct {
	inner MeshSource
	loads map[string]int
}

func (s *countingSource) LoadObject(path string) ([]objloader.Mesh, error) {
	s.loads[path]++
	return s.inner.LoadObject(path)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const twoMeshObj = `mtllib house.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
o walls
usemtl brick
f 1 2 3 4
o roof
usemtl unknown
f 1 2 3
`

func testAssets(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"3d/house.obj":   {Data: []byte(twoMeshObj)},
		"3d/house.mtl":   {Data: []byte("newmtl brick\nKd 0.5 0.5 0.5\nmap_Kd brick.png\nnorm brick_n.png\n")},
		"3d/brick.png":   {Data: pngBytes(t)},
		"3d/brick_n.png": {Data: pngBytes(t)},
		"3d/tree.obj":    {Data: []byte("mtllib house.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl brick\nf 1 2 3\n")},
		"3d/empty.obj":   {Data: []byte("o nothing\n")},
	}
}

func newTestManager(t *testing.T) (*Manager, *fakeGPU, *countingSource) {
	fsys := testAssets(t)
	gpu := newFakeGPU()
	src := &countingSource{inner: objloader.NewLoader(fsys), loads: map[string]int{}}
	return NewManager(gpu, src, FSImageSource{FS: fsys}), gpu, src
}

func TestLoadModelSharesLivePayload(t *testing.T) {
	m, gpu, src := newTestManager(t)
	ctx := context.Background()

	h1, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)
	buffersAfterFirst := gpu.count("create-buffer")

	h2, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)

	require.Len(t, h1.Meshes(), 2)
	assert.Same(t, h1.Meshes()[0], h2.Meshes()[0], "same payload object, not a copy")
	assert.Same(t, &h1.Meshes()[0], &h2.Meshes()[0], "same backing slice")
	assert.Equal(t, buffersAfterFirst, gpu.count("create-buffer"), "no second allocation")
	assert.Equal(t, 1, src.loads["3d/house.obj"])
	assert.Equal(t, Stats{Models: 1, Textures: 2}, m.Stats())
}

func TestLoadModelResolvesMaterials(t *testing.T) {
	m, _, _ := newTestManager(t)
	h, err := m.LoadModel(context.Background(), "3d/house.obj")
	require.NoError(t, err)

	walls, roof := h.Meshes()[0], h.Meshes()[1]
	assert.Equal(t, int32(6), walls.VertexCount)
	assert.NotZero(t, walls.Buffer)
	assert.Equal(t, [3]float32{0.5, 0.5, 0.5}, walls.Material.Diffuse)
	assert.Equal(t, [4]float32{1, 1, 1, 0}, walls.Material.Specular)
	require.NotNil(t, walls.Material.DiffuseMap)
	require.NotNil(t, walls.Material.NormalMap)
	assert.Equal(t, "3d/brick.png", walls.Material.DiffuseMap.Path())
	assert.NotEqual(t, walls.Material.DiffuseMap.Texture(), walls.Material.NormalMap.Texture())

	assert.Equal(t, DefaultAmbient, roof.Material.Ambient)
	assert.Equal(t, DefaultDiffuse, roof.Material.Diffuse)
	assert.Equal(t, DefaultSpecular, roof.Material.Specular)
	assert.Equal(t, float32(1), roof.Material.Opacity)
	assert.Nil(t, roof.Material.DiffuseMap)
}

func TestReleasedModelIsDestroyedOnceBeforeReload(t *testing.T) {
	m, gpu, src := newTestManager(t)
	ctx := context.Background()

	h, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)
	h.Release()
	h.Release() // idempotent
	assert.Nil(t, h.Meshes())
	assert.Equal(t, Stats{PendingModels: 1, Textures: 2}, m.Stats())

	gpu.calls = nil
	h2, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)
	require.NotNil(t, h2)

	assert.Equal(t, 2, src.loads["3d/house.obj"])
	assert.Equal(t, 2, gpu.count("delete-buffer"), "old buffers destroyed exactly once")
	require.NotEmpty(t, gpu.calls)
	firstCreate := -1
	lastDelete := -1
	for i, c := range gpu.calls {
		if c == "create-buffer" && firstCreate < 0 {
			firstCreate = i
		}
		if c == "delete-buffer" {
			lastDelete = i
		}
	}
	assert.Less(t, lastDelete, firstCreate, "destroy happens before any new allocation: %v", gpu.calls)

	// Textures were only released by the old entry and taken again by the
	// new one, so they are reused rather than uploaded twice.
	assert.Zero(t, gpu.count("create-texture"))
	assert.Zero(t, gpu.count("delete-texture"))

	// A later collection must not destroy the old entry a second time.
	assert.Zero(t, m.Collect())
	assert.Equal(t, 2, gpu.count("delete-buffer"))
}

func TestCollectDestroysUnreferencedEntries(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)
	b, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)

	a.Release()
	assert.Zero(t, m.Collect(), "still referenced by b")
	assert.Len(t, gpu.liveBuffers, 2)

	b.Release()
	assert.Equal(t, 3, m.Collect(), "model plus both textures")
	assert.Empty(t, gpu.liveBuffers)
	assert.Empty(t, gpu.liveTex)
	assert.Equal(t, Stats{}, m.Stats())
}

func TestSharedTextureOutlivesOneModel(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	ctx := context.Background()

	house, err := m.LoadModel(ctx, "3d/house.obj")
	require.NoError(t, err)
	tree, err := m.LoadModel(ctx, "3d/tree.obj")
	require.NoError(t, err)
	assert.Equal(t, 2, gpu.count("create-texture"), "brick textures uploaded once")
	assert.Equal(t,
		house.Meshes()[0].Material.DiffuseMap.Texture(),
		tree.Meshes()[0].Material.DiffuseMap.Texture())

	house.Release()
	assert.Equal(t, 1, m.Collect())
	assert.Len(t, gpu.liveTex, 2, "tree still uses the textures")

	tree.Release()
	assert.Equal(t, 3, m.Collect())
	assert.Empty(t, gpu.liveTex)
}

func TestRevivedTextureIsNotUploadedAgain(t *testing.T) {
	m, gpu, _ := newTestManager(t)

	h, err := m.LoadTexture("3d/brick.png")
	require.NoError(t, err)
	tex := h.Texture()
	h.Release()

	h2, err := m.LoadTexture("3d/brick.png")
	require.NoError(t, err)
	assert.Equal(t, tex, h2.Texture())
	assert.Zero(t, m.Collect())
	assert.Equal(t, 1, gpu.count("create-texture"))
}

func TestPartialLoadRollsBack(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	gpu.failBufferAt = 2

	_, err := m.LoadModel(context.Background(), "3d/house.obj")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGPUAllocation), "got %v", err)

	assert.Empty(t, gpu.liveBuffers, "first mesh buffer deleted")
	assert.Equal(t, Stats{PendingTextures: 2}, m.Stats())
	assert.Equal(t, 2, m.Collect())
	assert.Empty(t, gpu.liveTex)

	gpu.failBufferAt = 0
	h, err := m.LoadModel(context.Background(), "3d/house.obj")
	require.NoError(t, err)
	assert.Len(t, h.Meshes(), 2)
}

type deviceLostError struct{ code int }

func (e *deviceLostError) Error() string { return fmt.Sprintf("device lost (code %d)", e.code) }

func TestBackendErrorKeepsCause(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	gpu.failBufferAt = 1
	gpu.failErr = &deviceLostError{code: 7}

	_, err := m.LoadModel(context.Background(), "3d/house.obj")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGPUAllocation), "got %v", err)

	var lost *deviceLostError
	require.True(t, errors.As(err, &lost), "got %v", err)
	assert.Equal(t, 7, lost.code)
	assert.Contains(t, err.Error(), "device lost (code 7)")
}

func TestLoadFailures(t *testing.T) {
	m, gpu, _ := newTestManager(t)

	_, err := m.LoadModel(context.Background(), "3d/missing.obj")
	var le *LoadError
	require.True(t, errors.As(err, &le), "got %T %v", err, err)
	assert.Equal(t, "3d/missing.obj", le.Path)

	_, err = m.LoadTexture("3d/missing.png")
	assert.True(t, errors.As(err, &le))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.LoadModel(ctx, "3d/house.obj")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, gpu.calls)
}

func TestEmptyMeshGetsNoBuffer(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	h, err := m.LoadModel(context.Background(), "3d/empty.obj")
	require.NoError(t, err)
	require.Len(t, h.Meshes(), 1)
	assert.Zero(t, h.Meshes()[0].Buffer)
	assert.Zero(t, gpu.count("create-buffer"))
}

func TestCloseDestroysEverything(t *testing.T) {
	m, gpu, _ := newTestManager(t)
	_, err := m.LoadModel(context.Background(), "3d/house.obj")
	require.NoError(t, err)

	m.Close()
	assert.Empty(t, gpu.liveBuffers)
	assert.Empty(t, gpu.liveTex)
	assert.Equal(t, Stats{}, m.Stats())
}

func TestFSImageSourceFlipsRows(t *testing.T) {
	img, err := FSImageSource{FS: testAssets(t)}.DecodeImage("./3d/brick.png")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Rect.Dx())
	// The red pixel was written at the top-left and ends up bottom-left.
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}
