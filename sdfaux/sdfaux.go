// Package sdfaux runs the scene editor: a GLFW window rendering a
// [sdfed.Session], shader files watched for edits and a terminal status line.
package sdfaux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"
	"github.com/soypat/sdfed"
	"github.com/soypat/sdfed/glbuild/glsllib"
	"github.com/soypat/sdfed/glprog"
	"golang.org/x/sync/errgroup"
)

// UIConfig configures [UI].
type UIConfig struct {
	sdfed.Config
	// Context cancels the render loop and file watching when done.
	Context context.Context
	// Status receives status changes. Nil writes to os.Stdout.
	Status io.Writer
}

// UI opens a window and runs the editor until the window is closed or the
// context is cancelled. It must be called from the main goroutine locked
// to the main OS thread.
func UI(cfg UIConfig) error {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Status == nil {
		cfg.Status = os.Stdout
	}
	return ui(cfg)
}

// FallbackSources returns the embedded fallback program.
func FallbackSources() glprog.Sources {
	return glprog.Sources{Vertex: glsllib.FallbackVertex(), Fragment: glsllib.FallbackFragment()}
}

// LoadSources reads the vertex and fragment sources named in sc
// concurrently. An empty path selects the embedded source.
func LoadSources(sc sdfed.ShaderConfig) (glprog.Sources, error) {
	var src glprog.Sources
	var g errgroup.Group
	load := func(dst *string, path, embedded string) {
		g.Go(func() error {
			if path == "" {
				*dst = embedded
				return nil
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("loading shader: %w", err)
			}
			*dst = string(b)
			return nil
		})
	}
	load(&src.Vertex, sc.Vertex, glsllib.Vertex())
	load(&src.Fragment, sc.Fragment, glsllib.Fragment())
	err := g.Wait()
	return src, err
}

// loadShaders loads the sources in sc showing the loading status on p.
func loadShaders(p *StatusPrinter, sc sdfed.ShaderConfig) (glprog.Sources, error) {
	var from []string
	for _, path := range []string{sc.Vertex, sc.Fragment} {
		if path != "" {
			from = append(from, path)
		}
	}
	if len(from) == 0 {
		from = append(from, "embedded")
	}
	p.Print(glprog.Status{Kind: glprog.StatusLoading, Message: strings.Join(from, ", ")})
	src, err := LoadSources(sc)
	if err != nil {
		p.Print(glprog.Status{Kind: glprog.StatusError, Message: err.Error()})
	}
	return src, err
}

// logSliceReadout logs the distance field at the center of the slice view.
func logSliceReadout(log *slog.Logger, level slog.Level, sess *sdfed.Session) {
	r, ok := sess.SliceReadout()
	if !ok {
		log.Log(context.Background(), level, "slice readout: empty scene")
		return
	}
	log.Log(context.Background(), level, "slice readout",
		slog.Any("point", r.Point),
		slog.Float64("distance", float64(r.Distance)),
		slog.Int("material", int(r.Material)),
		slog.Any("normal", r.Normal),
	)
}

// WriteDefaultShaders writes the embedded sources to dir so they can be
// edited. Existing files are left untouched. It returns the paths.
func WriteDefaultShaders(dir string) (vertex, fragment string, err error) {
	vertex = filepath.Join(dir, "vertex.glsl")
	fragment = filepath.Join(dir, "fragment.glsl")
	for path, content := range map[string]string{vertex: glsllib.Vertex(), fragment: glsllib.Fragment()} {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		} else if err != nil {
			return "", "", err
		}
		_, err = io.WriteString(f, content)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", "", err
		}
	}
	return vertex, fragment, nil
}

// WatchSources calls edit with freshly loaded sources whenever one of the
// shader files in sc changes on disk. Parent directories are watched so
// editors that save by renaming are seen. It returns when ctx is done.
func WatchSources(ctx context.Context, sc sdfed.ShaderConfig, edit func(glprog.Sources)) error {
	if sc.Vertex == "" && sc.Fragment == "" {
		return errors.New("no shader files to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	watched := make(map[string]bool)
	for _, path := range []string{sc.Vertex, sc.Fragment} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return err
		}
	}
	log := sdfed.Logger()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !watched[abs] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			src, err := LoadSources(sc)
			if err != nil {
				// Mid-save; the next event reloads.
				log.Debug("reloading shaders", slog.String("err", err.Error()))
				continue
			}
			edit(src)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watching shaders", slog.String("err", err.Error()))
		}
	}
}

// StatusPrinter prints program status changes in the status color.
type StatusPrinter struct {
	out     *termenv.Output
	last    glprog.Status
	printed bool
}

// NewStatusPrinter returns a printer writing to w. Colors are only emitted
// when w is a terminal supporting them.
func NewStatusPrinter(w io.Writer) *StatusPrinter {
	return &StatusPrinter{out: termenv.NewOutput(w)}
}

// Print writes st if it differs from the last status printed. It reports
// whether anything was written.
func (p *StatusPrinter) Print(st glprog.Status) bool {
	if p.printed && st == p.last {
		return false
	}
	p.last, p.printed = st, true
	styled := p.out.String(st.String()).Foreground(p.out.Color(st.Color()))
	fmt.Fprintln(p.out, styled)
	return true
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
