package objloader

import (
	"bufio"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseMaterials reads Wavefront MTL data. Texture paths are joined onto
// dir so they can be loaded from the same file system as the model.
func ParseMaterials(r io.Reader, dir string) (map[string]*Material, error) {
	materials := make(map[string]*Material)
	var current *Material

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		token, params := fields[0], fields[1:]

		if token == "newmtl" {
			if len(params) == 0 {
				return nil, errors.Errorf("line %d: newmtl without name", line)
			}
			current = newMaterial()
			materials[params[0]] = current
			continue
		}
		if current == nil {
			continue
		}
		if err := applyMaterialToken(current, token, params, dir); err != nil {
			return nil, errors.Wrapf(err, "line %d: %s", line, token)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read materials")
	}
	return materials, nil
}

func applyMaterialToken(m *Material, token string, params []string, dir string) error {
	switch token {
	case "Ka":
		return parseColor(m.Ambient[:], params)
	case "Kd":
		return parseColor(m.Diffuse[:], params)
	case "Ks":
		return parseColor(m.Specular[:3], params)
	case "Ns":
		f, err := parseScalar(params)
		if err != nil {
			return err
		}
		m.Specular[3] = f
	case "d":
		f, err := parseScalar(params)
		if err != nil {
			return err
		}
		m.Opacity = f
	case "Tr":
		f, err := parseScalar(params)
		if err != nil {
			return err
		}
		m.Opacity = 1 - f
	case "map_Kd":
		m.DiffuseMap = mapPath(dir, params)
	case "norm", "normal", "map_Bump", "bump":
		m.NormalMap = mapPath(dir, params)
	}
	return nil
}

func parseColor(dst []float32, params []string) error {
	vals, err := parseFloats(params, 3, 3)
	if err != nil {
		return err
	}
	copy(dst, vals)
	return nil
}

func parseScalar(params []string) (float32, error) {
	if len(params) == 0 {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(params[0], 32)
	if err != nil {
		return 0, errors.Wrap(err, "bad value")
	}
	return float32(f), nil
}

// mapPath takes the file name from the last parameter; options such as
// "-bm 1.0" precede it.
func mapPath(dir string, params []string) string {
	if len(params) == 0 {
		return ""
	}
	return path.Join(dir, params[len(params)-1])
}
