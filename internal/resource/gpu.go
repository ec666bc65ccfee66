package resource

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	"mini-scene/pkg/objloader"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Buffer names a vertex buffer object owned by a GPU.
type Buffer uint32

// Texture names a texture object owned by a GPU.
type Texture uint32

// GPU creates and destroys the low-level objects backing cached resources.
type GPU interface {
	CreateVertexBuffer(data []float32) (Buffer, error)
	DeleteBuffer(b Buffer)
	CreateTexture(img *image.RGBA) (Texture, error)
	DeleteTexture(t Texture)
}

// MeshSource turns a model path into triangulated sub-meshes.
type MeshSource interface {
	LoadObject(path string) ([]objloader.Mesh, error)
}

// ImageSource decodes a texture path into pixels ready for upload.
type ImageSource interface {
	DecodeImage(path string) (*image.RGBA, error)
}

// FSImageSource decodes PNG, JPEG, GIF, BMP, TIFF and WebP images from a
// file system. Rows are flipped so the first row is the bottom of the
// image, matching texture coordinate space.
type FSImageSource struct {
	FS fs.FS
}

func (s FSImageSource) DecodeImage(path string) (*image.RGBA, error) {
	f, err := s.FS.Open(objloader.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open texture file")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	flipRows(rgba)
	return rgba, nil
}

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}
