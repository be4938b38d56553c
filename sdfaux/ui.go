//go:build !tinygo && cgo

package sdfaux

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/sdfed"
	"github.com/soypat/sdfed/gldriver"
)

// Context restoration is retried this often while the new context cannot
// be probed, up to maxRestoreAttempts times.
const (
	restoreRetry       = time.Second
	maxRestoreAttempts = 5
)

func ui(cfg UIConfig) error {
	log := sdfed.Logger()
	status := NewStatusPrinter(cfg.Status)
	src, err := loadShaders(status, cfg.Shaders)
	if err != nil {
		return err
	}
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing GLFW: %w", err)
	}
	defer glfw.Terminate()

	win, err := newWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer func() { win.destroy() }()

	sess, err := sdfed.Boot(win.drv, src, FallbackSources(), cfg.Config)
	if err != nil {
		return err
	}
	win.bindInput(sess)
	if cfg.Shaders.Vertex != "" || cfg.Shaders.Fragment != "" {
		go func() {
			err := WatchSources(cfg.Context, cfg.Shaders, sess.EditShaders)
			if err != nil && !errors.Is(err, cfg.Context.Err()) {
				log.Error("shader watcher stopped", slog.String("err", err.Error()))
			}
		}()
	}

	status.Print(sess.Status())
	watch := stopwatch()
	frames := 0
	restores := 0
	var nextRestore time.Time
	ctx := cfg.Context
	for !win.w.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		now := time.Now()
		fs := sess.Frame(now)
		var drawErr error
		if fs.Render {
			drawErr = win.r.draw(fs, win.w)
		} else {
			gl.ClearColor(0, 0, 0, 1)
			gl.Clear(gl.COLOR_BUFFER_BIT)
		}
		win.w.SwapBuffers()
		glfw.PollEvents()

		if win.drv.ContextLost() {
			sess.ContextLost()
			status.Print(sess.Status())
			if err := win.recreate(cfg.Window, sess); err != nil {
				return fmt.Errorf("recreating lost context: %w", err)
			}
			restores, nextRestore = 0, time.Time{}
		} else {
			sess.EndFrame(errors.Join(drawErr, win.drv.Err()))
		}
		if sess.Lost() && !now.Before(nextRestore) {
			restores++
			err := sess.ContextRestored(win.drv)
			switch {
			case err == nil:
			case !sess.Lost():
				log.Error("restored context unusable", slog.String("err", err.Error()))
			case restores >= maxRestoreAttempts:
				return fmt.Errorf("restoring lost context: %w", err)
			default:
				log.Warn("restoring lost context", slog.Int("attempt", restores), slog.String("err", err.Error()))
				nextRestore = now.Add(restoreRetry)
			}
		}
		status.Print(sess.Status())

		frames++
		if elapsed := watch(); elapsed > 5*time.Second {
			log.Debug("frame rate", slog.Float64("fps", float64(frames)/elapsed.Seconds()))
			if sess.View().Mode == sdfed.ModeSlice {
				logSliceReadout(log, slog.LevelDebug, sess)
			}
			frames = 0
			watch = stopwatch()
		}
	}
	return nil
}

// window is a GLFW window with its context's driver and renderer.
type window struct {
	w   *glfw.Window
	drv *gldriver.Driver
	r   *renderer
}

func newWindow(cfg sdfed.WindowConfig) (*window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextRobustness, glfw.LoseContextOnReset)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}
	w.MakeContextCurrent()
	glfw.SwapInterval(1)
	if err := gl.Init(); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	drv, err := gldriver.New()
	if err != nil {
		w.Destroy()
		return nil, err
	}
	r, err := newRenderer()
	if err != nil {
		w.Destroy()
		return nil, err
	}
	sdfed.Logger().Info("OpenGL context ready", slog.String("version", drv.Version()))
	return &window{w: w, drv: drv, r: r}, nil
}

// recreate replaces a window whose context was lost.
func (win *window) recreate(cfg sdfed.WindowConfig, sess *sdfed.Session) error {
	cfg.Width, cfg.Height = win.w.GetSize()
	win.w.Destroy()
	fresh, err := newWindow(cfg)
	if err != nil {
		return err
	}
	*win = *fresh
	win.bindInput(sess)
	return nil
}

func (win *window) destroy() {
	win.r.delete()
	win.w.Destroy()
}

func (win *window) bindInput(sess *sdfed.Session) {
	const sensitivity = 0.005
	var (
		lastX, lastY float64
		first        = true
		dragging     = false
	)
	w := win.w
	w.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		if !dragging {
			return
		}
		if first {
			lastX, lastY = x, y
			first = false
		}
		sess.View().Orbit(float32(x-lastX)*sensitivity, -float32(y-lastY)*sensitivity)
		lastX, lastY = x, y
	})
	w.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		sess.View().Zoom(float32(yoff))
	})
	w.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			dragging, first = true, true
			w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		case glfw.Release:
			dragging = false
			w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	})
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		v := sess.View()
		switch key {
		case glfw.KeyM:
			v.Mode = v.Mode.Next()
		case glfw.KeyP, glfw.KeySpace:
			v.Paused = !v.Paused
		case glfw.KeyF:
			v.ShowFloor = !v.ShowFloor
		case glfw.KeyR:
			sess.FitView()
		case glfw.KeyD:
			logSliceReadout(sdfed.Logger(), slog.LevelInfo, sess)
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})
}

// renderer draws a full screen quad with the session's current program.
type renderer struct {
	prog     glgl.Program
	gen      uint64
	vao, vbo uint32
	u        uniforms
}

type uniforms struct {
	resolution, time, mode                         int32
	yaw, pitch, camDist, target                    int32
	showFloor, floorY                              int32
	sliceOffset, sliceYaw, slicePitch              int32
	contourSpacing, contourWidth, sliceOpacity     int32
	sweepPhase                                     int32
	shapeCount, shapeA, shapeB, shapeC, shapeD     int32
	materialCount, materialA, materialB, materialC int32
}

func newRenderer() (*renderer, error) {
	var r renderer
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	// aPos is bound to location 0 by the vertex program's layout qualifier.
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	if err := glgl.Err(); err != nil {
		r.delete()
		return nil, fmt.Errorf("creating screen quad: %w", err)
	}
	return &r, nil
}

// use builds the program for fs if its generation changed.
func (r *renderer) use(fs sdfed.FrameState) error {
	if r.prog.ID() != 0 && r.gen == fs.Generation {
		return nil
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   fs.Sources.Vertex + "\x00",
		Fragment: fs.Sources.Fragment + "\x00",
	})
	if err != nil {
		return err
	}
	if r.prog.ID() != 0 {
		r.prog.Delete()
	}
	r.prog = prog
	r.gen = fs.Generation
	loc := func(name string) int32 {
		// Unused uniforms are optimized out and report -1; uploads to -1 are ignored.
		return gl.GetUniformLocation(prog.ID(), gl.Str(name+"\x00"))
	}
	u := &r.u
	u.resolution = loc("iResolution")
	u.time = loc("iTime")
	u.mode = loc("iMode")
	u.yaw = loc("uYaw")
	u.pitch = loc("uPitch")
	u.camDist = loc("uCamDist")
	u.target = loc("uTarget")
	u.showFloor = loc("uShowFloor")
	u.floorY = loc("uFloorY")
	u.sliceOffset = loc("uSliceOffset")
	u.sliceYaw = loc("uSliceYaw")
	u.slicePitch = loc("uSlicePitch")
	u.contourSpacing = loc("uContourSpacing")
	u.contourWidth = loc("uContourWidth")
	u.sliceOpacity = loc("uSliceObjectOpacity")
	u.sweepPhase = loc("uSweepPhase")
	u.shapeCount = loc("uShapeCount")
	u.shapeA = loc("uShapeA")
	u.shapeB = loc("uShapeB")
	u.shapeC = loc("uShapeC")
	u.shapeD = loc("uShapeD")
	u.materialCount = loc("uMaterialCount")
	u.materialA = loc("uMaterialA")
	u.materialB = loc("uMaterialB")
	u.materialC = loc("uMaterialC")
	return nil
}

func (r *renderer) draw(fs sdfed.FrameState, w *glfw.Window) error {
	if err := r.use(fs); err != nil {
		return err
	}
	width, height := w.GetFramebufferSize()
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	r.prog.Bind()

	v, u := fs.View, r.u
	gl.Uniform2f(u.resolution, float32(width), float32(height))
	gl.Uniform1f(u.time, v.Time)
	gl.Uniform1i(u.mode, int32(v.Mode))
	gl.Uniform1f(u.yaw, v.Yaw)
	gl.Uniform1f(u.pitch, v.Pitch)
	gl.Uniform1f(u.camDist, v.CamDist)
	gl.Uniform3f(u.target, v.Target.X, v.Target.Y, v.Target.Z)
	gl.Uniform1i(u.showFloor, b2i(v.ShowFloor))
	gl.Uniform1f(u.floorY, v.FloorY)
	gl.Uniform1f(u.sliceOffset, v.SliceOffset)
	gl.Uniform1f(u.sliceYaw, v.SliceYaw)
	gl.Uniform1f(u.slicePitch, v.SlicePitch)
	gl.Uniform1f(u.contourSpacing, v.ContourSpacing)
	gl.Uniform1f(u.contourWidth, v.ContourWidth)
	gl.Uniform1f(u.sliceOpacity, v.SliceObjectOpacity)
	gl.Uniform1f(u.sweepPhase, v.SweepPhase)

	// The whole arena is uploaded so slots past the count read as zero.
	buf := fs.Buffers
	n := int32(buf.Cap())
	gl.Uniform1i(u.shapeCount, buf.ShapeCount)
	gl.Uniform4fv(u.shapeA, n, &buf.ShapeA[0][0])
	gl.Uniform4fv(u.shapeB, n, &buf.ShapeB[0][0])
	gl.Uniform4fv(u.shapeC, n, &buf.ShapeC[0][0])
	gl.Uniform4fv(u.shapeD, n, &buf.ShapeD[0][0])
	nm := int32(len(buf.MaterialA))
	gl.Uniform1i(u.materialCount, buf.MaterialCount)
	gl.Uniform4fv(u.materialA, nm, &buf.MaterialA[0][0])
	gl.Uniform4fv(u.materialB, nm, &buf.MaterialB[0][0])
	gl.Uniform4fv(u.materialC, nm, &buf.MaterialC[0][0])

	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	return nil
}

func (r *renderer) delete() {
	if r.prog.ID() != 0 {
		r.prog.Delete()
	}
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
