// Package app is the scene viewer: it stages a scene, loads it, and per
// frame steps the simulation, mirrors body poses onto the render proxies and
// draws them.
package app

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"path"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"quarkview/app/fetch"
	"quarkview/hal"
	"quarkview/internal/buildinfo"
	"quarkview/quark/framesync"
	"quarkview/quark/loader"
	"quarkview/quark/physics"
	"quarkview/quark/quarkgl"
	"quarkview/quark/vfs"
)

// Initial view.
const (
	cameraFOV     = 45
	cameraNear    = 0.001
	cameraFar     = 100
	defaultWidth  = 960
	defaultHeight = 600
)

var (
	cameraStart = mgl64.Vec3{2.0, 1.7, 1.7}
	controlsAim = mgl64.Vec3{0, 0.7, 0}
)

// Options configures Setup.
type Options struct {
	// Scene is a URL or path of the scene document.
	Scene   string
	BaseDir string
	Client  *http.Client

	Width, Height int
	// Supersample renders at this multiple of the viewport size.
	Supersample int

	Paused      bool
	HUD         bool
	MaxSubsteps int

	Logger hal.Logger
}

// Viewer owns everything a running scene needs. It is driven from a single
// goroutine; only Stop may be called concurrently.
type Viewer struct {
	Scene    *loader.Scene
	FS       *vfs.FS
	Root     *quarkgl.Object
	Camera   *quarkgl.PerspectiveCamera
	Controls *quarkgl.OrbitControls
	Renderer *quarkgl.Renderer
	HUD      *quarkgl.HUD
	Stepper  *physics.Stepper

	log         hal.Logger
	supersample int
	width       int
	height      int

	paused  bool
	showHUD bool
	stopped atomic.Bool

	frames int
	fps    float64
}

// Setup fetches the scene, stages it in a fresh VFS under
// loader.WorkingDir, loads it and builds the render side. On error it
// returns a nil Viewer.
func Setup(ctx context.Context, opts Options) (*Viewer, error) {
	log := opts.Logger
	if log == nil {
		log = hal.Discard
	}
	f := &fetch.Fetcher{Client: opts.Client, BaseDir: opts.BaseDir}

	text, err := f.Fetch(ctx, opts.Scene)
	if err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}

	fsys := vfs.New()
	if err := fsys.Mkdir(loader.WorkingDir); err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}
	if err := fsys.Mount(vfs.NewMemFS(), loader.WorkingDir); err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}
	name := fetch.BaseName(opts.Scene)
	if err := fsys.WriteFile(path.Join(loader.WorkingDir, name), text); err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}
	if err := stageAssets(ctx, f, fsys, opts.Scene, text, log); err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}

	sc, err := loader.LoadScene(ctx, fsys, name)
	if err != nil {
		return nil, fmt.Errorf("app: setup: %w", err)
	}
	for _, w := range sc.Warnings {
		hal.Logf(log, "scene: %s", w)
	}
	hal.Logf(log, "scene: loaded %s: %d bodies, %d geoms, %d lights",
		name, sc.Model.NBody, len(sc.Model.Geoms), len(sc.Lights))
	for _, l := range sc.Lights {
		node := l.Node()
		hal.Logf(log, "scene: light %s directional=%v on %s", node.Name, l.Directional, node.Parent().Name)
	}

	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = defaultWidth, defaultHeight
	}
	v := &Viewer{
		Scene:       sc,
		FS:          fsys,
		Root:        quarkgl.NewGroup("scene"),
		Camera:      quarkgl.NewPerspectiveCamera(cameraFOV, float64(w)/float64(h), cameraNear, cameraFar),
		HUD:         quarkgl.NewHUD(),
		Stepper:     &physics.Stepper{Sim: sc.Simulation, MaxSubsteps: opts.MaxSubsteps},
		log:         log,
		supersample: max(opts.Supersample, 1),
		paused:      opts.Paused,
		showHUD:     opts.HUD,
	}
	if v.Stepper.MaxSubsteps <= 0 {
		v.Stepper.MaxSubsteps = 64
	}
	v.Root.Add(sc.Root)
	v.Camera.SetPosition(cameraStart[0], cameraStart[1], cameraStart[2])
	v.Renderer = quarkgl.NewRenderer(w*v.supersample, h*v.supersample)
	v.width, v.height = w, h

	v.Controls = quarkgl.NewOrbitControls(v.Camera)
	v.Controls.Target = controlsAim
	v.Controls.Update()
	return v, nil
}

// stageAssets copies texture files next to the staged document. Missing
// assets are logged and skipped; the loader falls back to plain colours.
func stageAssets(ctx context.Context, f *fetch.Fetcher, fsys *vfs.FS, src string, doc []byte, log hal.Logger) error {
	for _, file := range loader.AssetFiles(doc) {
		if path.IsAbs(file) {
			continue
		}
		data, err := f.Fetch(ctx, fetch.Sibling(src, file))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			hal.Logf(log, "scene: asset %s: %v", file, err)
			continue
		}
		if err := fsys.WriteFile(path.Join(loader.WorkingDir, file), data); err != nil {
			return err
		}
	}
	return nil
}

// Frame steps the simulation by dt unless paused, mirrors body poses onto
// their proxies and renders. A panic inside the frame stops the viewer and
// comes back as a *PanicError.
func (v *Viewer) Frame(dt time.Duration) (err error) {
	if !v.Running() {
		return nil
	}
	defer v.recoverFrame(&err)
	if !v.paused {
		v.Stepper.Advance(dt.Seconds())
	}
	framesync.SyncSimulation(v.Scene.Bodies, v.Scene.Simulation)
	v.Renderer.Render(v.Root, v.Camera)

	v.frames++
	if s := dt.Seconds(); s > 0 {
		inst := 1 / s
		if v.fps == 0 {
			v.fps = inst
		} else {
			v.fps += (inst - v.fps) * 0.1
		}
	}
	if v.showHUD {
		v.HUD.Draw(v.Renderer.Target(), v.hudLines())
	}
	return nil
}

func (v *Viewer) hudLines() []string {
	m := v.Scene.Model
	state := "running"
	if v.paused {
		state = "paused"
	}
	return []string{
		fmt.Sprintf("%s  quarkview %s", m.Name, buildinfo.Short()),
		fmt.Sprintf("t=%.3fs  %s", v.Scene.State.Time, state),
		fmt.Sprintf("%.1f fps  %d tris  %d contacts", v.fps, v.Renderer.Stats().Triangles, v.Scene.Simulation.Contacts),
	}
}

// Resize sets the camera aspect to w/h and the surface to w×h (times the
// supersample factor).
func (v *Viewer) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	v.width, v.height = w, h
	v.Camera.Aspect = float64(w) / float64(h)
	v.Camera.UpdateProjectionMatrix()
	v.Renderer.SetSize(w*v.supersample, h*v.supersample)
}

// Surface is the last rendered frame.
func (v *Viewer) Surface() *image.RGBA { return v.Renderer.Surface() }

// HandleInput maps mouse drags and the wheel to the orbit controls and
// keys to viewer commands.
func (v *Viewer) HandleInput(in hal.InputState) {
	moved := false
	switch {
	case in.Left && (in.DX != 0 || in.DY != 0):
		v.Controls.Rotate(in.DX, in.DY)
		moved = true
	case (in.Right || in.Middle) && (in.DX != 0 || in.DY != 0):
		v.Controls.Pan(in.DX, in.DY, v.height)
		moved = true
	}
	if in.Wheel != 0 {
		v.Controls.Zoom(in.Wheel)
		moved = true
	}
	if moved {
		v.Controls.Update()
	}

	for _, k := range in.Pressed {
		switch k {
		case hal.KeyEscape:
			v.Stop()
		case hal.KeySpace:
			v.SetPaused(!v.paused)
		case hal.KeyR:
			v.Reset()
		case hal.KeyW:
			if v.Renderer.Mode == quarkgl.RenderWireframe {
				v.Renderer.SetRenderMode(quarkgl.RenderSolidFlat)
			} else {
				v.Renderer.SetRenderMode(quarkgl.RenderWireframe)
			}
		case hal.KeyH:
			v.showHUD = !v.showHUD
		case hal.KeyPeriod:
			if v.paused {
				v.Scene.Simulation.Step()
			}
		}
	}
}

// SetPaused stops or resumes stepping. A paused viewer still mirrors and
// renders every frame.
func (v *Viewer) SetPaused(p bool) {
	if v.paused == p {
		return
	}
	v.paused = p
	v.Stepper.Reset()
	hal.Logf(v.log, "sim: paused=%v t=%.3f", p, v.Scene.State.Time)
}

// Paused reports whether stepping is off.
func (v *Viewer) Paused() bool { return v.paused }

// Reset returns the simulation to its reference pose.
func (v *Viewer) Reset() {
	v.Scene.Simulation.Reset()
	v.Stepper.Reset()
	hal.Logf(v.log, "sim: reset")
}

// Frames returns the number of frames rendered.
func (v *Viewer) Frames() int { return v.frames }

// Stop ends the frame loop. It is safe to call from any goroutine.
func (v *Viewer) Stop() { v.stopped.Store(true) }

// Running reports whether the loop should continue.
func (v *Viewer) Running() bool { return !v.stopped.Load() }

var _ hal.App = (*Viewer)(nil)
