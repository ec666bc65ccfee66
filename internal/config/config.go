package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration file.
type Config struct {
	Window Window `yaml:"window" toml:"window"`
	Camera Camera `yaml:"camera" toml:"camera"`
	Render Render `yaml:"render" toml:"render"`
	Assets Assets `yaml:"assets" toml:"assets"`
	Scene  Scene  `yaml:"scene" toml:"scene"`
}

type Window struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Title  string `yaml:"title" toml:"title"`
	VSync  bool   `yaml:"vsync" toml:"vsync"`
}

type Camera struct {
	FOV      float32    `yaml:"fov" toml:"fov"` // vertical, degrees
	Near     float32    `yaml:"near" toml:"near"`
	Far      float32    `yaml:"far" toml:"far"`
	Position [3]float32 `yaml:"position" toml:"position"`
	Rotation [3]float32 `yaml:"rotation" toml:"rotation"`
}

type Render struct {
	ClearColor [4]float32 `yaml:"clear_color" toml:"clear_color"`
	FPSLimit   int        `yaml:"fps_limit" toml:"fps_limit"`
	// MatrixMode is "snapshot" or "inverse".
	MatrixMode string `yaml:"matrix_mode" toml:"matrix_mode"`
}

type Assets struct {
	// Root is the directory model paths are resolved against.
	Root string `yaml:"root" toml:"root"`
}

// Scene is the model shown at startup.
type Scene struct {
	Model    string     `yaml:"model" toml:"model"`
	Position [3]float32 `yaml:"position" toml:"position"`
	Rotation [3]float32 `yaml:"rotation" toml:"rotation"`
	Spin     float32    `yaml:"spin" toml:"spin"` // degrees per second about Y
}

func Default() Config {
	return Config{
		Window: Window{Width: 1280, Height: 720, Title: "mini-scene", VSync: true},
		Camera: Camera{FOV: 45, Near: 0.1, Far: 1000},
		Render: Render{
			ClearColor: [4]float32{0.2, 0.3, 0.5, 1},
			MatrixMode: "snapshot",
		},
		Assets: Assets{Root: "."},
		Scene: Scene{
			Model:    "3d/Cottage_FREE.obj",
			Position: [3]float32{0, 0, -100},
			Rotation: [3]float32{30, 0, 0},
			Spin:     60,
		},
	}
}

// Load reads a YAML or TOML file, chosen by extension, over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := Decode(&cfg, filepath.Ext(path), data); err != nil {
		return cfg, errors.Wrapf(err, "decode %s", path)
	}
	return cfg, cfg.Validate()
}

// Decode unmarshals data in the format named by ext into cfg. Fields
// missing from data keep their current values.
func Decode(cfg *Config, ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
	return errors.Errorf("unsupported config format %q", ext)
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	case c.Camera.FOV <= 0 || c.Camera.FOV >= 180:
		return errors.Errorf("camera fov %g out of range (0, 180)", c.Camera.FOV)
	case c.Camera.Near <= 0 || c.Camera.Near >= c.Camera.Far:
		return errors.Errorf("camera near %g must be positive and below far %g", c.Camera.Near, c.Camera.Far)
	case c.Render.FPSLimit < 0:
		return errors.Errorf("fps limit %d must not be negative", c.Render.FPSLimit)
	case c.Scene.Model == "":
		return errors.New("scene model is empty")
	}
	switch strings.ToLower(c.Render.MatrixMode) {
	case "", "snapshot", "inverse":
	default:
		return errors.Errorf("unknown matrix mode %q", c.Render.MatrixMode)
	}
	return nil
}
