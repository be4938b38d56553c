//go:build tinygo || !cgo

package gldriver

import "github.com/soypat/sdfed/glprog"

// Driver is unavailable without cgo.
type Driver struct{}

// New returns [ErrUnavailable].
func New() (*Driver, error) { return nil, ErrUnavailable }

func (d *Driver) Version() string { return "" }

func (d *Driver) CreateShader(glprog.Stage) (glprog.Shader, error) { return 0, ErrUnavailable }

func (d *Driver) CompileShader(glprog.Shader, string) (bool, string) {
	return false, ErrUnavailable.Error()
}

func (d *Driver) DeleteShader(glprog.Shader) {}

func (d *Driver) CreateProgram() (glprog.Program, error) { return 0, ErrUnavailable }

func (d *Driver) AttachShader(glprog.Program, glprog.Shader) {}

func (d *Driver) LinkProgram(glprog.Program) (bool, string) { return false, ErrUnavailable.Error() }

func (d *Driver) ValidateProgram(glprog.Program) (bool, string) {
	return false, ErrUnavailable.Error()
}

func (d *Driver) DeleteProgram(glprog.Program) {}

func (d *Driver) MaxFragmentUniformVectors() (int, error) { return 0, ErrUnavailable }

func (d *Driver) MaxFragmentUniformComponents() (int, error) { return 0, ErrUnavailable }

func (d *Driver) ContextLost() bool { return false }

func (d *Driver) Err() error { return ErrUnavailable }
