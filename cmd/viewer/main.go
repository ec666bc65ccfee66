package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"runtime"

	"mini-scene/internal/config"
	"mini-scene/internal/engine"
	"mini-scene/internal/game"
	"mini-scene/internal/graphics"
	"mini-scene/internal/resource"
	"mini-scene/pkg/objloader"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/xlab/closer"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	var (
		configPath string
		modelPath  string
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "YAML or TOML config file")
	flag.StringVar(&modelPath, "model", "", "Model to show, relative to the asset root")
	flag.BoolVar(&debug, "debug", false, "Log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			logger.Error("invalid config", "path", configPath, "err", err)
			os.Exit(2)
		}
		logger.Info("config loaded", "path", configPath)
	}
	if modelPath != "" {
		cfg.Scene.Model = modelPath
	}

	// A signal cancels the frame loop; GL teardown still happens here on
	// the main thread before closer exits the process.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
	})

	err := run(ctx, cfg, logger)
	close(done)
	if err != nil {
		logger.Error("viewer failed", "err", err)
		closer.Exit(1)
	}
	closer.Close()
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	mode, err := engine.ParseMatrixMode(cfg.Render.MatrixMode)
	if err != nil {
		return err
	}
	config.SetFPSLimit(cfg.Render.FPSLimit)

	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "init glfw")
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer window.Destroy()

	program, err := graphics.NewProgram(mode, mgl32.Vec4(cfg.Render.ClearColor))
	if err != nil {
		return err
	}
	defer program.Delete()

	assets := os.DirFS(cfg.Assets.Root)
	resources := resource.NewManager(
		graphics.NewDevice(),
		objloader.NewLoader(assets),
		resource.FSImageSource{FS: assets},
		resource.WithLogger(logger),
	)
	defer resources.Close()

	fbWidth, fbHeight := window.GetFramebufferSize()
	camera := engine.NewCamera(fbWidth, fbHeight)
	camera.FOV = cfg.Camera.FOV
	camera.Near = cfg.Camera.Near
	camera.Far = cfg.Camera.Far
	camera.Position = mgl32.Vec3(cfg.Camera.Position)
	camera.Rotation = mgl32.Vec3(cfg.Camera.Rotation)

	app := game.NewApp(window, camera, logger)

	var pipeline *engine.Pipeline
	pipeline = engine.NewPipeline(program, resources, camera,
		engine.WithLogger(logger),
		engine.WithInitErrorHandler(func(e engine.Entity, err error) {
			pipeline.Unregister(e)
		}),
	)

	house := game.NewHouse(cfg.Scene.Model, cfg.Scene.Spin)
	house.Position = mgl32.Vec3(cfg.Scene.Position)
	house.Rotation = mgl32.Vec3(cfg.Scene.Rotation)
	pipeline.Register(house)

	logger.Info("viewer started", "model", cfg.Scene.Model, "matrix_mode", mode.String())
	if err := pipeline.Run(ctx, app); err != nil {
		return err
	}
	pipeline.Unregister(house)
	return nil
}
