package objloader

import (
	"io/fs"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Loader reads models and their material libraries from a file system.
type Loader struct {
	fsys fs.FS
}

func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadObject parses the OBJ file at name and attaches the materials of its
// "mtllib", which is looked up next to the model.
func (l *Loader) LoadObject(name string) ([]Mesh, error) {
	name = Clean(name)
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "could not open model file")
	}
	defer f.Close()

	doc, err := ParseObject(f, name)
	if err != nil {
		return nil, err
	}

	if doc.MaterialLib != "" {
		mtlPath := path.Join(path.Dir(name), doc.MaterialLib)
		materials, err := l.LoadMaterials(mtlPath)
		if err != nil {
			return nil, errors.Wrapf(err, "could not load material library '%s'", doc.MaterialLib)
		}
		doc.BindMaterials(materials)
	}
	return doc.Meshes, nil
}

func (l *Loader) LoadMaterials(name string) (map[string]*Material, error) {
	name = Clean(name)
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "could not open material file")
	}
	defer f.Close()

	return ParseMaterials(f, path.Dir(name))
}

// Clean maps a slash-separated asset path such as "./3d/house.obj" onto
// the form io/fs accepts.
func Clean(name string) string {
	return path.Clean(strings.TrimPrefix(name, "/"))
}
