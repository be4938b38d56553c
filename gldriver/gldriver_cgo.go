//go:build !tinygo && cgo

package gldriver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/sdfed/glcap"
	"github.com/soypat/sdfed/glprog"
)

var (
	_ glprog.Driver = (*Driver)(nil)
	_ glcap.Limits  = (*Driver)(nil)
)

// Driver talks to the OpenGL context current on the calling thread.
type Driver struct {
	lost bool
}

// New returns a driver for the current context. gl.Init must have been called.
func New() (*Driver, error) {
	if gl.GetString(gl.VERSION) == nil {
		return nil, errors.New("gldriver: no current OpenGL context")
	}
	return &Driver{}, nil
}

// Version returns the GL_VERSION string of the context.
func (d *Driver) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *Driver) CreateShader(stage glprog.Stage) (glprog.Shader, error) {
	var typ uint32
	switch stage {
	case glprog.StageVertex:
		typ = gl.VERTEX_SHADER
	case glprog.StageFragment:
		typ = gl.FRAGMENT_SHADER
	default:
		return 0, fmt.Errorf("gldriver: no shader object for %s stage", stage)
	}
	id := gl.CreateShader(typ)
	if id == 0 {
		return 0, fmt.Errorf("gldriver: create %s shader: %w", stage, glErr())
	}
	return glprog.Shader(id), nil
}

func (d *Driver) CompileShader(sh glprog.Shader, src string) (bool, string) {
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(uint32(sh), 1, csrc, nil)
	free()
	gl.CompileShader(uint32(sh))
	var status int32
	gl.GetShaderiv(uint32(sh), gl.COMPILE_STATUS, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetShaderiv(uint32(sh), gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(log *uint8) {
		gl.GetShaderInfoLog(uint32(sh), logLength, nil, log)
	})
}

func (d *Driver) DeleteShader(sh glprog.Shader) { gl.DeleteShader(uint32(sh)) }

func (d *Driver) CreateProgram() (glprog.Program, error) {
	id := gl.CreateProgram()
	if id == 0 {
		return 0, fmt.Errorf("gldriver: create program: %w", glErr())
	}
	return glprog.Program(id), nil
}

func (d *Driver) AttachShader(p glprog.Program, sh glprog.Shader) {
	gl.AttachShader(uint32(p), uint32(sh))
}

func (d *Driver) LinkProgram(p glprog.Program) (bool, string) {
	gl.LinkProgram(uint32(p))
	return d.programStatus(p, gl.LINK_STATUS)
}

func (d *Driver) ValidateProgram(p glprog.Program) (bool, string) {
	gl.ValidateProgram(uint32(p))
	return d.programStatus(p, gl.VALIDATE_STATUS)
}

func (d *Driver) DeleteProgram(p glprog.Program) { gl.DeleteProgram(uint32(p)) }

func (d *Driver) programStatus(p glprog.Program, pname uint32) (bool, string) {
	var status int32
	gl.GetProgramiv(uint32(p), pname, &status)
	if status == gl.TRUE {
		return true, ""
	}
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	return false, infoLog(logLength, func(log *uint8) {
		gl.GetProgramInfoLog(uint32(p), logLength, nil, log)
	})
}

func infoLog(length int32, get func(*uint8)) string {
	if length <= 0 {
		return "no info log"
	}
	log := strings.Repeat("\x00", int(length+1))
	get(gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

// MaxFragmentUniformVectors queries GL_MAX_FRAGMENT_UNIFORM_VECTORS.
func (d *Driver) MaxFragmentUniformVectors() (int, error) {
	return getInteger(gl.MAX_FRAGMENT_UNIFORM_VECTORS)
}

// MaxFragmentUniformComponents queries GL_MAX_FRAGMENT_UNIFORM_COMPONENTS.
func (d *Driver) MaxFragmentUniformComponents() (int, error) {
	return getInteger(gl.MAX_FRAGMENT_UNIFORM_COMPONENTS)
}

func getInteger(pname uint32) (int, error) {
	// Drain stale errors so the query is judged on its own.
	for i := 0; i < 16 && gl.GetError() != gl.NO_ERROR; i++ {
	}
	var v int32
	gl.GetIntegerv(pname, &v)
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
		return int(v), nil
	case gl.INVALID_ENUM:
		return 0, glcap.ErrUnsupported
	default:
		return 0, fmt.Errorf("gldriver: glGetIntegerv(0x%x): error 0x%x", pname, code)
	}
}

// ContextLost polls the context's reset status. Reset notification must
// have been requested when creating the context.
func (d *Driver) ContextLost() bool {
	if !d.lost && gl.GetGraphicsResetStatus() != gl.NO_ERROR {
		d.lost = true
	}
	return d.lost
}

// Err samples the GL error state after a frame.
func (d *Driver) Err() error {
	if d.ContextLost() {
		return ErrContextLost
	}
	return glgl.Err()
}

func glErr() error {
	if err := glgl.Err(); err != nil {
		return err
	}
	return errors.New("unknown error")
}
