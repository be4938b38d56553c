// Package gltest provides a scripted in-memory graphics driver for tests.
package gltest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/soypat/sdfed/glcap"
	"github.com/soypat/sdfed/glprog"
)

// Tokens recognized by the fake compiler. A source containing one fails
// the corresponding step.
const (
	CompileFailToken  = "COMPILE_ERROR"
	LinkFailToken     = "LINK_ERROR"
	ValidateFailToken = "VALIDATE_ERROR"
)

// ErrFrame is a runtime error the fake reports for a failing frame.
var ErrFrame = errors.New("gltest: GL_INVALID_OPERATION")

var _ glprog.Driver = (*Driver)(nil)

// Driver is a fake [glprog.Driver]. Compilation fails on unbalanced braces,
// on a missing #version line and on [CompileFailToken]. All objects are
// tracked so tests can check nothing leaks.
type Driver struct {
	// CreateErr makes object creation fail when set.
	CreateErr error

	mu        sync.Mutex
	lastID    uint32
	shaders   map[glprog.Shader]*shader
	programs  map[glprog.Program][]glprog.Shader
	compiles  int
	frameErrs []error
}

type shader struct {
	stage    glprog.Stage
	src      string
	compiled bool
}

// NewDriver returns a driver with no live objects.
func NewDriver() *Driver {
	return &Driver{
		shaders:  make(map[glprog.Shader]*shader),
		programs: make(map[glprog.Program][]glprog.Shader),
	}
}

// Live returns the number of shader and program objects not yet deleted.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shaders) + len(d.programs)
}

// Compiles returns the number of CompileShader calls.
func (d *Driver) Compiles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.compiles
}

// QueueFrameErrors schedules errors returned by successive [Driver.Err] calls.
// A nil entry is a clean frame.
func (d *Driver) QueueFrameErrors(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frameErrs = append(d.frameErrs, errs...)
}

// Err returns the next queued frame error or nil once the queue is drained.
func (d *Driver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.frameErrs) == 0 {
		return nil
	}
	err := d.frameErrs[0]
	d.frameErrs = d.frameErrs[1:]
	return err
}

func (d *Driver) CreateShader(stage glprog.Stage) (glprog.Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CreateErr != nil {
		return 0, d.CreateErr
	}
	d.lastID++
	sh := glprog.Shader(d.lastID)
	d.shaders[sh] = &shader{stage: stage}
	return sh, nil
}

func (d *Driver) CompileShader(sh glprog.Shader, src string) (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compiles++
	s, ok := d.shaders[sh]
	if !ok {
		return false, "invalid shader object"
	}
	s.src = src
	if log := compileLog(src); log != "" {
		return false, log
	}
	s.compiled = true
	return true, ""
}

func (d *Driver) DeleteShader(sh glprog.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, sh)
}

func (d *Driver) CreateProgram() (glprog.Program, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CreateErr != nil {
		return 0, d.CreateErr
	}
	d.lastID++
	p := glprog.Program(d.lastID)
	d.programs[p] = nil
	return p, nil
}

func (d *Driver) AttachShader(p glprog.Program, sh glprog.Shader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.programs[p]; ok {
		d.programs[p] = append(d.programs[p], sh)
	}
}

func (d *Driver) LinkProgram(p glprog.Program) (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	attached, ok := d.programs[p]
	if !ok {
		return false, "invalid program object"
	}
	var haveVertex, haveFragment bool
	for _, sh := range attached {
		s := d.shaders[sh]
		if s == nil || !s.compiled {
			return false, "error: linking with uncompiled shader"
		}
		if strings.Contains(s.src, LinkFailToken) {
			return false, "error: " + LinkFailToken
		}
		haveVertex = haveVertex || s.stage == glprog.StageVertex
		haveFragment = haveFragment || s.stage == glprog.StageFragment
	}
	if !haveVertex || !haveFragment {
		return false, "error: program lacks a vertex or fragment shader"
	}
	return true, ""
}

func (d *Driver) ValidateProgram(p glprog.Program) (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sh := range d.programs[p] {
		if s := d.shaders[sh]; s != nil && strings.Contains(s.src, ValidateFailToken) {
			return false, "error: " + ValidateFailToken
		}
	}
	return true, ""
}

func (d *Driver) DeleteProgram(p glprog.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.programs, p)
}

// compileLog returns a driver-style info log for src or the empty string
// if src compiles.
func compileLog(src string) string {
	if !strings.HasPrefix(src, "#version") {
		return "ERROR: 0:1: '' : #version required and missing."
	}
	depth := 0
	for i, line := range strings.Split(src, "\n") {
		if strings.Contains(line, CompileFailToken) {
			return fmt.Sprintf("ERROR: 0:%d: '%s' : syntax error", i+1, CompileFailToken)
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			return fmt.Sprintf("ERROR: 0:%d: '}' : syntax error", i+1)
		}
	}
	if depth != 0 {
		return "ERROR: 0:0: '' : unexpected end of file"
	}
	return ""
}

var _ glcap.Limits = Limits{}

// Limits is a fixed [glcap.Limits] implementation.
type Limits struct {
	Vectors       int
	Components    int
	VectorsErr    error
	ComponentsErr error
}

func (l Limits) MaxFragmentUniformVectors() (int, error) { return l.Vectors, l.VectorsErr }

func (l Limits) MaxFragmentUniformComponents() (int, error) { return l.Components, l.ComponentsErr }

// Context pairs a [Driver] with fixed [Limits], like a real graphics context.
type Context struct {
	*Driver
	Limits
}

// NewContext returns a context reporting the given fragment uniform vector limit.
func NewContext(vectors int) Context {
	return Context{Driver: NewDriver(), Limits: Limits{Vectors: vectors, Components: 4 * vectors}}
}
