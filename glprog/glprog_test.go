package glprog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/soypat/sdfed/glbuild"
	"github.com/soypat/sdfed/glbuild/glsllib"
	"github.com/soypat/sdfed/glprog"
	"github.com/soypat/sdfed/gltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockSources() glprog.Sources {
	return glprog.Sources{Vertex: glsllib.Vertex(), Fragment: glsllib.Fragment()}
}

func TestValidateOK(t *testing.T) {
	drv := gltest.NewDriver()
	v := glprog.Validator{
		Driver:       drv,
		Preprocessor: glbuild.Preprocessor{Defines: map[string]int{glbuild.DefineMaxShapes: 40}},
	}
	got, err := v.Validate(stockSources())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Vertex, glbuild.VersionStr))
	assert.Contains(t, got.Fragment, "#define MAX_SHAPES 40\n")
	assert.Equal(t, 2, drv.Compiles())
	assert.Zero(t, drv.Live(), "leaked driver objects")
}

func TestValidateFailures(t *testing.T) {
	good := stockSources()
	tests := []struct {
		name  string
		src   glprog.Sources
		stage glprog.Stage
	}{
		{"vertex", glprog.Sources{Vertex: good.Vertex + "\n" + gltest.CompileFailToken, Fragment: good.Fragment}, glprog.StageVertex},
		{"fragment", glprog.Sources{Vertex: good.Vertex, Fragment: good.Fragment + "\n}"}, glprog.StageFragment},
		{"link", glprog.Sources{Vertex: good.Vertex, Fragment: good.Fragment + "\n" + gltest.LinkFailToken}, glprog.StageLink},
		{"validate", glprog.Sources{Vertex: good.Vertex + "\n" + gltest.ValidateFailToken, Fragment: good.Fragment}, glprog.StageValidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := gltest.NewDriver()
			v := glprog.Validator{Driver: drv}
			got, err := v.Validate(tt.src)
			require.Error(t, err)
			assert.True(t, got.IsZero())
			var serr *glprog.SourceError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.stage, serr.Stage)
			assert.True(t, strings.HasPrefix(err.Error(), "["+tt.stage.String()+"] "), err.Error())
			assert.NotEmpty(t, serr.Log)
			assert.Zero(t, drv.Live(), "leaked driver objects")
		})
	}
}

func TestValidateCommentedFailToken(t *testing.T) {
	drv := gltest.NewDriver()
	v := glprog.Validator{Driver: drv}
	src := stockSources()
	src.Fragment += "\n// " + gltest.CompileFailToken + "\n/* { */\n"
	_, err := v.Validate(src)
	assert.NoError(t, err, "comments are stripped before compiling")
}

func TestValidateCreateError(t *testing.T) {
	drv := gltest.NewDriver()
	drv.CreateErr = errors.New("out of memory")
	v := glprog.Validator{Driver: drv}
	_, err := v.Validate(stockSources())
	require.ErrorIs(t, err, drv.CreateErr)
	var serr *glprog.SourceError
	assert.False(t, errors.As(err, &serr))
	assert.Zero(t, drv.Live())
}

func TestFailedValidationKeepsLive(t *testing.T) {
	drv := gltest.NewDriver()
	v := glprog.Validator{Driver: drv}
	live, err := v.Validate(stockSources())
	require.NoError(t, err)
	slot := glprog.NewSlot(glprog.Live{Sources: live})
	gen := slot.Generation()

	bad := stockSources()
	bad.Fragment = strings.Replace(bad.Fragment, "void main() {", "void main() {{", 1)
	if _, err := v.Validate(bad); err == nil {
		t.Fatal("expected unbalanced braces to fail")
	}
	got, ok := slot.Sources()
	require.True(t, ok)
	assert.Equal(t, live, got)
	assert.Equal(t, gen, slot.Generation())
}

func TestSlotTransitions(t *testing.T) {
	a := glprog.Sources{Vertex: "a", Fragment: "a"}
	b := glprog.Sources{Vertex: "b", Fragment: "b"}
	fb := glprog.Sources{Vertex: "fb", Fragment: "fb"}
	slot := glprog.NewSlot(glprog.Live{Sources: a})
	assert.EqualValues(t, 1, slot.Generation())

	slot.EngageFallback("3 frame errors", fb)
	assert.True(t, slot.IsFallback())
	src, ok := slot.Sources()
	assert.True(t, ok)
	assert.Equal(t, fb, src)

	// A successful edit leaves fallback.
	assert.True(t, slot.Apply(b))
	assert.Equal(t, glprog.Live{Sources: b}, slot.State())

	slot.Disable("context lost")
	assert.False(t, slot.Apply(a), "apply while disabled")
	_, ok = slot.Sources()
	assert.False(t, ok)
	gen := slot.Generation()

	slot.Restore(a)
	assert.Equal(t, gen+1, slot.Generation())
	assert.Equal(t, "live", glprog.Describe(slot.State()))
}

func TestNilInitialIsDisabled(t *testing.T) {
	slot := glprog.NewSlot(nil)
	assert.True(t, slot.IsDisabled())
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "live", glprog.Status{Kind: glprog.StatusLive}.String())
	st := glprog.Status{Kind: glprog.StatusError, Message: "[Fragment] ERROR: 0:3"}
	assert.Equal(t, "error: [Fragment] ERROR: 0:3", st.String())
	assert.Equal(t, "#4dffaa", glprog.Status{Kind: glprog.StatusLive}.Color())
	assert.Equal(t, "#ffcc44", glprog.Status{Kind: glprog.StatusEditing}.Color())
	assert.Equal(t, "#ff4466", st.Color())
	assert.Equal(t, "#ff4466", glprog.Status{Kind: glprog.StatusDisabled}.Color())
}
