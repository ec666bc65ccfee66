package graphics

import (
	"image"

	"mini-scene/internal/resource"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
)

// Device creates buffers and textures in the current GL context. It
// implements resource.GPU.
type Device struct {
	// Mipmaps generates a mipmap chain for every uploaded texture.
	Mipmaps bool
}

var _ resource.GPU = (*Device)(nil)

func NewDevice() *Device {
	return &Device{Mipmaps: true}
}

func (d *Device) CreateVertexBuffer(data []float32) (resource.Buffer, error) {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	if vbo == 0 {
		return 0, errors.Wrap(resource.ErrGPUAllocation, "glGenBuffers returned 0")
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
		gl.DeleteBuffers(1, &vbo)
		return 0, errors.Wrapf(resource.ErrGPUAllocation, "glBufferData %d floats: out of memory", len(data))
	}
	return resource.Buffer(vbo), nil
}

func (d *Device) DeleteBuffer(b resource.Buffer) {
	vbo := uint32(b)
	gl.DeleteBuffers(1, &vbo)
}

// CreateTexture uploads img, whose first row is the bottom of the texture.
func (d *Device) CreateTexture(img *image.RGBA) (resource.Texture, error) {
	var texture uint32
	gl.GenTextures(1, &texture)
	if texture == 0 {
		return 0, errors.Wrap(resource.ErrGPUAllocation, "glGenTextures returned 0")
	}
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if d.Mipmaps {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}

	size := img.Rect.Size()
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(size.X),
		int32(size.Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(img.Pix),
	)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	if d.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code == gl.OUT_OF_MEMORY {
		gl.DeleteTextures(1, &texture)
		return 0, errors.Wrapf(resource.ErrGPUAllocation, "glTexImage2D %dx%d: out of memory", size.X, size.Y)
	}
	return resource.Texture(texture), nil
}

func (d *Device) DeleteTexture(t resource.Texture) {
	tex := uint32(t)
	gl.DeleteTextures(1, &tex)
}
