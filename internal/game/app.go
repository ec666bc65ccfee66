package game

import (
	"log/slog"
	"time"

	"mini-scene/internal/config"
	"mini-scene/internal/engine"
	"mini-scene/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Frames taking longer than this are logged with their top profiling
// entries.
const slowFrame = 16 * time.Millisecond

// App hosts the render pipeline in a glfw window. It implements
// engine.Host.
type App struct {
	window *glfw.Window
	camera *engine.Camera
	logger *slog.Logger

	fpsLimiter *FPSLimiter
	frameStart time.Time
	minimized  bool

	fpsFrames int
	fpsSince  time.Time
}

var _ engine.Host = (*App)(nil)

func NewApp(window *glfw.Window, camera *engine.Camera, logger *slog.Logger) *App {
	a := &App{
		window:     window,
		camera:     camera,
		logger:     logger,
		fpsLimiter: NewFPSLimiter(config.GetFPSLimit),
		fpsSince:   time.Now(),
	}

	fbWidth, fbHeight := window.GetFramebufferSize()
	a.resize(fbWidth, fbHeight)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		a.resize(fbWidth, fbHeight)
	})
	window.SetIconifyCallback(func(w *glfw.Window, iconified bool) {
		a.minimized = iconified
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return a
}

func (a *App) resize(fbWidth, fbHeight int) {
	gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	a.camera.SetViewport(fbWidth, fbHeight)
}

func (a *App) ShouldClose() bool {
	return a.window.ShouldClose()
}

func (a *App) BeginFrame() {
	profiling.ResetFrame()
	a.frameStart = time.Now()
	glfw.PollEvents()
}

func (a *App) EndFrame() {
	a.window.SwapBuffers()

	// Check if frame took too long
	if d := time.Since(a.frameStart); d > slowFrame {
		a.logger.Warn("slow frame", "duration", d, "top", profiling.TopN(5))
	}

	a.fpsFrames++
	if since := time.Since(a.fpsSince); since >= time.Second {
		a.logger.Debug("fps", "fps", float64(a.fpsFrames)/since.Seconds())
		a.fpsFrames = 0
		a.fpsSince = time.Now()
	}

	a.fpsLimiter.Wait(a.minimized)
}
