// Package glprog validates shader program sources against a graphics driver
// and holds the state of the program currently used for rendering.
//
// The driver is treated as an opaque compiler: any backend able to compile,
// link, validate and release shader objects can implement [Driver].
package glprog

import "strconv"

// Stage identifies the pipeline step a diagnostic originated from.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageLink
	StageValidate
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "Vertex"
	case StageFragment:
		return "Fragment"
	case StageLink:
		return "Link"
	case StageValidate:
		return "Validate"
	}
	return "Stage(" + strconv.Itoa(int(s)) + ")"
}

// Shader is a driver shader object handle.
type Shader uint32

// Program is a driver program object handle.
type Program uint32

// Driver is the subset of a graphics API needed to validate programs.
// Compile, link and validate report success and the driver's info log.
type Driver interface {
	CreateShader(stage Stage) (Shader, error)
	CompileShader(sh Shader, src string) (ok bool, log string)
	DeleteShader(sh Shader)
	CreateProgram() (Program, error)
	AttachShader(p Program, sh Shader)
	LinkProgram(p Program) (ok bool, log string)
	ValidateProgram(p Program) (ok bool, log string)
	DeleteProgram(p Program)
}

// Sources is a vertex and fragment source pair. Both stages are always
// swapped together.
type Sources struct {
	Vertex   string
	Fragment string
}

// IsZero reports whether both stages are empty.
func (s Sources) IsZero() bool { return s.Vertex == "" && s.Fragment == "" }

// SourceError is a compile, link or validation failure. Log is the driver's
// info log, unmodified.
type SourceError struct {
	Stage Stage
	Log   string
}

func (e *SourceError) Error() string {
	return "[" + e.Stage.String() + "] " + e.Log
}
