package glbuild

import (
	"strings"
	"testing"

	"github.com/soypat/sdfed/glbuild/glsllib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"none", "void main(){}\n", "void main(){}\n"},
		{"line", "float a; // trailing\nfloat b;\n", "float a; \nfloat b;\n"},
		{"line at EOF", "float a; // no newline", "float a; "},
		{"block", "float /* x */ a;", "float   a;"},
		{"multiline block", "a/*1\n2\n3*/b", "a \n\nb"},
		{"unterminated block", "a/* open\n", "a \n"},
		{"division", "x = a / b;", "x = a / b;"},
		{"trailing slash", "a/", "a/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.src))
		})
	}
}

func TestStripCommentsKeepsLines(t *testing.T) {
	src := glsllib.Fragment()
	got := StripComments(src)
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(got, "\n"))
	assert.NotContains(t, got, "//")
}

func TestStripVersion(t *testing.T) {
	src := "// header\n#version 300 es\nprecision highp float;\n#version 100\n"
	got := StripVersion(src)
	assert.Equal(t, "// header\nprecision highp float;\n#version 100\n", got)

	noVersion := "void main(){}\n"
	assert.Equal(t, noVersion, StripVersion(noVersion))

	indented := "  #  version 460 core"
	assert.Equal(t, "", StripVersion(indented))
}

func TestRewriteDefines(t *testing.T) {
	src := strings.Join([]string{
		"#define MAX_SHAPES 32",
		"#define MAX_STEPS\t128",
		"#define MAX_MATERIALS MAX_SHAPES", // Not an integer.
		"#define UNKNOWN 4",
		"  #define MAX_SHADOW_STEPS 16",
		"#define MAX_REFRACT_STEPS 8",
	}, "\n")
	got := RewriteDefines(src, map[string]int{
		DefineMaxShapes:    64,
		DefineMaxSteps:     200,
		DefineMaxMaterials: 8,
		DefineShadowSteps:  48,
		"UNKNOWN":          99,
	})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "#define MAX_SHAPES 64", lines[0])
	assert.Equal(t, "#define MAX_STEPS 200", lines[1])
	assert.Equal(t, "#define MAX_MATERIALS MAX_SHAPES", lines[2])
	assert.Equal(t, "#define UNKNOWN 4", lines[3])
	assert.Equal(t, "#define MAX_SHADOW_STEPS 48", lines[4])
	assert.Equal(t, "#define MAX_REFRACT_STEPS 8", lines[5], "absent from values")
}

func TestRewriteDefinesNeverAdds(t *testing.T) {
	src := "void main() {}\n"
	got := RewriteDefines(src, map[string]int{DefineMaxShapes: 10})
	assert.Equal(t, src, got)
}

func TestPreprocessorProcess(t *testing.T) {
	pp := Preprocessor{Defines: map[string]int{DefineMaxShapes: 17}}
	got := pp.Process(glsllib.Fragment())
	require.True(t, strings.HasPrefix(got, VersionStr))
	assert.Equal(t, 1, strings.Count(got, "#version"))
	assert.Contains(t, got, "#define MAX_SHAPES 17\n")
	assert.Contains(t, got, "#define MAX_MATERIALS 8\n")

	custom := Preprocessor{Version: "#version 330 core"}
	got = custom.Process("#version 100\nvoid main(){}")
	assert.Equal(t, "#version 330 core\nvoid main(){}", got)
}

func TestAppendDefineDecl(t *testing.T) {
	got := AppendDefineDecl(nil, "MAX_STEPS", "64")
	assert.Equal(t, "#define MAX_STEPS 64\n", string(got))
}
