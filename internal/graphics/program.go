package graphics

import (
	_ "embed"

	"mini-scene/internal/engine"
	"mini-scene/internal/resource"
	"mini-scene/pkg/objloader"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

var (
	//go:embed shaders/model.vert
	modelVert string
	//go:embed shaders/model.frag
	modelFrag string
)

const (
	vertexStride   = objloader.FloatsPerVertex * 4
	texCoordOffset = 4 * 4
)

// Program draws textured meshes through the model shader. It implements
// engine.RenderBackend.
type Program struct {
	*engine.Transforms

	shader     *Shader
	vao        uint32
	white      uint32
	clearColor mgl32.Vec4

	position uint32
	texCoord uint32
	textured bool
}

var _ engine.RenderBackend = (*Program)(nil)

// NewProgram compiles the model shader. A GL context must be current.
func NewProgram(mode engine.MatrixMode, clearColor mgl32.Vec4) (*Program, error) {
	shader, err := NewShader(modelVert, modelFrag)
	if err != nil {
		return nil, errors.Wrap(err, "model program")
	}
	p := &Program{
		Transforms: engine.NewTransforms(mode),
		shader:     shader,
		clearColor: clearColor,
	}
	if p.position, err = shader.Attrib("aPosition"); err != nil {
		shader.Delete()
		return nil, err
	}
	if p.texCoord, err = shader.Attrib("aTexCoord"); err != nil {
		shader.Delete()
		return nil, err
	}

	gl.GenVertexArrays(1, &p.vao)
	p.white = whiteTexture()
	return p, nil
}

func (p *Program) Activate() {
	p.shader.Use()
	gl.BindVertexArray(p.vao)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	p.shader.SetInt("uTexture", 0)
}

func (p *Program) Clear() {
	c := p.clearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (p *Program) SetModelMatrix(model mgl32.Mat4) {
	p.shader.SetMatrix4("uModelViewProj", p.ModelViewProjection(model))
}

func (p *Program) SetVertices(buf resource.Buffer) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.VertexAttribPointerWithOffset(p.position, 4, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(p.position)
}

func (p *Program) SetTextureCoords(buf resource.Buffer) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.VertexAttribPointerWithOffset(p.texCoord, 2, gl.FLOAT, false, vertexStride, texCoordOffset)
	gl.EnableVertexAttribArray(p.texCoord)
}

func (p *Program) SetTexture0(tex resource.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	p.textured = true
}

// DrawArray draws count vertices as triangles. Meshes drawn without a
// texture sample a white pixel.
func (p *Program) DrawArray(offset, count int32) {
	if !p.textured {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, p.white)
	}
	gl.DrawArrays(gl.TRIANGLES, offset, count)
	p.textured = false
}

// Delete releases the program's GL objects.
func (p *Program) Delete() {
	p.shader.Delete()
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
	}
	if p.white != 0 {
		gl.DeleteTextures(1, &p.white)
	}
}

func whiteTexture() uint32 {
	pix := []uint8{255, 255, 255, 255}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}
