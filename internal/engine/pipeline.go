package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"mini-scene/internal/profiling"
	"mini-scene/internal/resource"

	"github.com/pkg/errors"
)

var ErrAlreadyRunning = errors.New("pipeline already running")

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Host drives the frame loop: it owns the window and presents frames.
type Host interface {
	ShouldClose() bool
	BeginFrame()
	EndFrame()
}

type PipelineOption func(*Pipeline)

func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock replaces time.Now as the source of frame timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// WithInitErrorHandler is called with every entity whose Init failed. The
// entity stays registered; the handler may unregister it.
func WithInitErrorHandler(fn func(Entity, error)) PipelineOption {
	return func(p *Pipeline) { p.onInitError = fn }
}

// Pipeline owns the top-level entities and runs the frame loop. It must be
// used from the thread holding the GL context.
type Pipeline struct {
	backend   RenderBackend
	resources *resource.Manager
	camera    *Camera

	logger      *slog.Logger
	now         func() time.Time
	onInitError func(Entity, error)

	entities  []Entity
	pending   []Entity
	state     State
	lastFrame time.Time
}

func NewPipeline(backend RenderBackend, resources *resource.Manager, camera *Camera, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		backend:   backend,
		resources: resources,
		camera:    camera,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) Camera() *Camera { return p.camera }

// Entities returns the top-level entities in render order.
func (p *Pipeline) Entities() []Entity {
	return slices.Clone(p.entities)
}

// Register adds e to the end of the render list and queues its Init for
// the start of the next frame. Until then e renders without geometry. It
// reports false if e is nil or already registered.
func (p *Pipeline) Register(e Entity) bool {
	if e == nil || slices.Contains(p.entities, e) {
		return false
	}
	p.entities = append(p.entities, e)
	if !slices.Contains(p.pending, e) {
		p.pending = append(p.pending, e)
	}
	return true
}

// Unregister removes e by moving the last entity into its slot, so the
// order of the remaining entities is not preserved. Disposers are disposed
// once their queued Init, if any, has run.
func (p *Pipeline) Unregister(e Entity) bool {
	i := slices.Index(p.entities, e)
	if i < 0 {
		return false
	}
	last := len(p.entities) - 1
	p.entities[i] = p.entities[last]
	p.entities[last] = nil
	p.entities = p.entities[:last]

	if !slices.Contains(p.pending, e) {
		dispose(e)
	}
	return true
}

func (p *Pipeline) runPendingInits(ctx context.Context) {
	if len(p.pending) == 0 {
		return
	}
	defer profiling.Track("pipeline.Init")()

	// An entity stays in pending until its Init returns, so Unregister
	// leaves disposing it to this loop.
	for len(p.pending) > 0 {
		e := p.pending[0]
		p.pending = p.pending[1:]

		err := e.Init(ctx, p.resources)
		if !slices.Contains(p.entities, e) {
			dispose(e)
		}
		if err != nil {
			p.logger.Error("entity init failed", "entity", fmt.Sprintf("%T", e), "err", err)
			if p.onInitError != nil {
				p.onInitError(e, err)
			}
		}
	}
	p.pending = nil
}

func (p *Pipeline) Update(dt float64) {
	defer profiling.Track("pipeline.Update")()
	for i := 0; i < len(p.entities); i++ {
		p.entities[i].Update(dt)
	}
}

func (p *Pipeline) Render() {
	defer profiling.Track("pipeline.Render")()

	p.backend.Clear()
	p.backend.SetViewMatrix(p.camera.View())
	p.backend.SetProjection(p.camera.Projection())
	for _, e := range p.entities {
		e.Render(p.backend)
	}
	if d := p.backend.MatrixDepth(); d != 0 {
		p.logger.Error("matrix stack not balanced after render", "depth", d)
	}
}

// Frame runs queued inits, then Update, Render and resource collection.
// dt is the time since the previous frame in seconds, 0 on the first.
func (p *Pipeline) Frame(ctx context.Context, now time.Time) {
	var dt float64
	if !p.lastFrame.IsZero() {
		dt = now.Sub(p.lastFrame).Seconds()
	}
	p.lastFrame = now

	p.runPendingInits(ctx)
	p.Update(dt)
	p.Render()

	stop := profiling.Track("pipeline.Collect")
	if n := p.resources.Collect(); n > 0 {
		p.logger.Debug("collected resources", "count", n)
	}
	stop()
}

// Run renders frames until the host closes or ctx is done.
func (p *Pipeline) Run(ctx context.Context, host Host) error {
	if p.state == Running {
		return ErrAlreadyRunning
	}
	p.state = Running
	defer func() { p.state = Idle }()

	p.backend.Activate()
	p.lastFrame = p.now()
	for !host.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		host.BeginFrame()
		p.Frame(ctx, p.now())
		host.EndFrame()
	}
	return nil
}
