package sdfaux

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soypat/sdfed"
	"github.com/soypat/sdfed/glbuild/glsllib"
	"github.com/soypat/sdfed/glprog"
	"github.com/soypat/sdfed/gltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSourcesEmbedded(t *testing.T) {
	src, err := LoadSources(sdfed.ShaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, glsllib.Vertex(), src.Vertex)
	assert.Equal(t, glsllib.Fragment(), src.Fragment)
}

func TestWriteDefaultShadersAndLoad(t *testing.T) {
	dir := t.TempDir()
	vs, fs, err := WriteDefaultShaders(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(fs, []byte("custom"), 0o644))
	_, _, err = WriteDefaultShaders(dir)
	require.NoError(t, err)

	src, err := LoadSources(sdfed.ShaderConfig{Vertex: vs, Fragment: fs})
	require.NoError(t, err)
	assert.Equal(t, glsllib.Vertex(), src.Vertex)
	assert.Equal(t, "custom", src.Fragment, "existing files are not overwritten")

	_, err = LoadSources(sdfed.ShaderConfig{Fragment: filepath.Join(dir, "missing.glsl")})
	assert.Error(t, err)
}

func TestWatchSources(t *testing.T) {
	dir := t.TempDir()
	vs, fs, err := WriteDefaultShaders(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	edits := make(chan glprog.Sources, 16)
	done := make(chan error, 1)
	go func() {
		done <- WatchSources(ctx, sdfed.ShaderConfig{Vertex: vs, Fragment: fs}, func(src glprog.Sources) {
			select {
			case edits <- src:
			default:
			}
		})
	}()

	// The watcher may not be registered yet; keep writing until seen.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case src := <-edits:
			if strings.Contains(src.Fragment, "edited") {
				cancel()
				assert.ErrorIs(t, <-done, context.Canceled)
				return
			}
		case <-tick.C:
			require.NoError(t, os.WriteFile(fs, []byte("// edited\n"+glsllib.Fragment()), 0o644))
		case <-deadline:
			t.Fatal("no edit observed")
		}
	}
}

func TestWatchSourcesNoFiles(t *testing.T) {
	err := WatchSources(context.Background(), sdfed.ShaderConfig{}, func(glprog.Sources) {})
	assert.Error(t, err)
}

func TestStatusPrinterOnChange(t *testing.T) {
	var buf bytes.Buffer
	p := NewStatusPrinter(&buf)
	live := glprog.Status{Kind: glprog.StatusLive}
	assert.True(t, p.Print(live))
	assert.False(t, p.Print(live))
	assert.True(t, p.Print(glprog.Status{Kind: glprog.StatusError, Message: "[Fragment] 0:3"}))
	assert.True(t, p.Print(live))
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "error: [Fragment] 0:3")
}

func TestFallbackSources(t *testing.T) {
	fb := FallbackSources()
	assert.NotContains(t, fb.Fragment, "uShapeA")
	assert.Contains(t, fb.Vertex, "aPos")
}

func TestLoadShadersStatus(t *testing.T) {
	var buf bytes.Buffer
	p := NewStatusPrinter(&buf)
	_, err := loadShaders(p, sdfed.ShaderConfig{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "loading: embedded")

	buf.Reset()
	missing := filepath.Join(t.TempDir(), "missing.glsl")
	_, err = loadShaders(p, sdfed.ShaderConfig{Fragment: missing})
	require.Error(t, err)
	out := buf.String()
	assert.Contains(t, out, "loading: "+missing)
	assert.Contains(t, out, "error: loading shader")
}

func TestLogSliceReadout(t *testing.T) {
	sess, err := sdfed.Boot(gltest.NewContext(1024), glprog.Sources{Vertex: glsllib.Vertex(), Fragment: glsllib.Fragment()}, FallbackSources(), sdfed.DefaultConfig())
	require.NoError(t, err)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logSliceReadout(log, slog.LevelInfo, sess)
	out := buf.String()
	assert.Contains(t, out, "slice readout")
	assert.Contains(t, out, "distance=")
	assert.Contains(t, out, "material=")
}
