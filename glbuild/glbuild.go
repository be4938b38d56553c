// Package glbuild prepares user-edited GLSL sources for compilation by the
// host: comments are removed, the user's #version directive is replaced by
// the host's and recognized numeric #define constants are rewritten to
// match the renderer's capacities.
package glbuild

import (
	"bytes"
	"strconv"
	"strings"
)

// VersionStr is the version directive injected for the editor's OpenGL 4.6 core context.
const VersionStr = "#version 460 core\n"

// Recognized #define constants. Other defines are left as written.
const (
	DefineMaxShapes    = "MAX_SHAPES"
	DefineMaxMaterials = "MAX_MATERIALS"
	DefineMaxSteps     = "MAX_STEPS"
	DefineShadowSteps  = "MAX_SHADOW_STEPS"
	DefineRefractSteps = "MAX_REFRACT_STEPS"
)

// IsRecognizedDefine reports whether name is a #define the preprocessor may rewrite.
func IsRecognizedDefine(name string) bool {
	switch name {
	case DefineMaxShapes, DefineMaxMaterials, DefineMaxSteps, DefineShadowSteps, DefineRefractSteps:
		return true
	}
	return false
}

// Preprocessor rewrites shader sources before validation and compilation.
type Preprocessor struct {
	// Version is the directive prepended to every source. Empty uses [VersionStr].
	Version string
	// Defines maps recognized #define names to the integer they are rewritten to.
	// Names not recognized by [IsRecognizedDefine] are ignored.
	Defines map[string]int
}

// Process strips comments and the first #version directive from src,
// rewrites recognized defines and prepends the host version directive.
func (pp *Preprocessor) Process(src string) string {
	version := pp.Version
	if version == "" {
		version = VersionStr
	}
	src = StripComments(src)
	src = StripVersion(src)
	src = RewriteDefines(src, pp.Defines)
	if !strings.HasSuffix(version, "\n") {
		version += "\n"
	}
	return version + src
}

// StripComments removes // line comments and /* block */ comments. Newlines
// inside block comments are kept so driver diagnostics keep their line numbers.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '/' || i+1 >= len(src) {
			b.WriteByte(c)
			continue
		}
		switch src[i+1] {
		case '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end - 1 // Keep the newline.
		case '*':
			end := strings.Index(src[i+2:], "*/")
			var comment string
			if end < 0 {
				comment = src[i:]
				i = len(src)
			} else {
				comment = src[i : i+2+end+2]
				i += 2 + end + 1
			}
			b.WriteByte(' ')
			b.WriteString(strings.Repeat("\n", strings.Count(comment, "\n")))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// StripVersion removes the first line whose directive is #version.
func StripVersion(src string) string {
	start := 0
	for start < len(src) {
		end := strings.IndexByte(src[start:], '\n')
		lineEnd := len(src)
		if end >= 0 {
			lineEnd = start + end + 1
		}
		if name, _, ok := directive(src[start:lineEnd]); ok && name == "version" {
			return src[:start] + src[lineEnd:]
		}
		start = lineEnd
	}
	return src
}

// RewriteDefines replaces the integer value of every recognized
// `#define NAME <int>` line whose name is in values. Lines with non-integer
// values are left untouched and no define is ever added.
func RewriteDefines(src string, values map[string]int) string {
	if len(values) == 0 {
		return src
	}
	lines := strings.SplitAfter(src, "\n")
	var scratch []byte
	for i, line := range lines {
		name, args, ok := directive(line)
		if !ok || name != "define" {
			continue
		}
		fields := strings.Fields(args)
		if len(fields) != 2 || !IsRecognizedDefine(fields[0]) {
			continue
		}
		v, ok := values[fields[0]]
		if !ok {
			continue
		} else if _, err := strconv.Atoi(fields[1]); err != nil {
			continue
		}
		scratch = AppendDefineDecl(scratch[:0], fields[0], strconv.Itoa(v))
		if !strings.HasSuffix(line, "\n") {
			scratch = bytes.TrimSuffix(scratch, []byte{'\n'})
		}
		lines[i] = string(scratch)
	}
	return strings.Join(lines, "")
}

// directive parses a preprocessor line of the form `  # name args`.
func directive(line string) (name, args string, ok bool) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return "", "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	name, args, _ = strings.Cut(rest, " ")
	if tab := strings.IndexByte(name, '\t'); tab >= 0 {
		name, args = name[:tab], name[tab+1:]+" "+args
	}
	return name, strings.TrimSpace(args), name != ""
}

// AppendDefineDecl appends a `#define` line to b.
func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}
