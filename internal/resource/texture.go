package resource

type textureEntry struct {
	path string
	tex  Texture
	refs int

	destroyed bool
}

// TextureHandle is one reference to a cached texture.
type TextureHandle struct {
	manager  *Manager
	entry    *textureEntry
	released bool
}

func (h *TextureHandle) Texture() Texture { return h.entry.tex }

func (h *TextureHandle) Path() string { return h.entry.path }

// Release drops the handle's reference. Further calls do nothing.
func (h *TextureHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.manager.releaseTexture(h.entry)
}

// LoadTexture returns a handle to the texture at path. A path is decoded
// and uploaded once; an entry released but not yet collected is picked
// up again without another upload.
func (m *Manager) LoadTexture(path string) (*TextureHandle, error) {
	if t, ok := m.textures[path]; ok {
		if t.refs == 0 {
			m.doomedTextures = removeEntry(m.doomedTextures, t)
		}
		t.refs++
		m.logger.Debug("texture cache hit", "path", path, "refs", t.refs)
		return &TextureHandle{manager: m, entry: t}, nil
	}

	img, err := m.images.DecodeImage(path)
	if err != nil {
		return nil, loadFailure(path, err)
	}
	tex, err := m.gpu.CreateTexture(img)
	if err != nil {
		return nil, gpuFailure(err, "texture %q", path)
	}

	t := &textureEntry{path: path, tex: tex, refs: 1}
	m.textures[path] = t
	m.logger.Debug("texture loaded", "path", path, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return &TextureHandle{manager: m, entry: t}, nil
}

func (m *Manager) releaseTexture(t *textureEntry) {
	t.refs--
	if t.refs == 0 && !t.destroyed {
		m.doomedTextures = append(m.doomedTextures, t)
	}
}

func (m *Manager) destroyTexture(t *textureEntry) {
	if t.destroyed {
		return
	}
	t.destroyed = true
	m.logger.Debug("texture destroyed", "path", t.path)
	m.gpu.DeleteTexture(t.tex)
	if m.textures[t.path] == t {
		delete(m.textures, t.path)
	}
	m.doomedTextures = removeEntry(m.doomedTextures, t)
}
