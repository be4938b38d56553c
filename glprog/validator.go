package glprog

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/soypat/sdfed/glbuild"
)

// Validator compiles, links and validates a source pair in a throwaway
// program. It never touches the program used for rendering.
type Validator struct {
	Driver       Driver
	Preprocessor glbuild.Preprocessor
	Logger       *slog.Logger
}

// Validate preprocesses src and checks it against the driver. On success
// it returns the processed sources ready to be built into the live
// program. Failures are returned as a *[SourceError] when the driver
// rejected the sources. Every driver object created is released before
// Validate returns.
func (v *Validator) Validate(src Sources) (Sources, error) {
	if v.Driver == nil {
		return Sources{}, errors.New("glprog: nil driver")
	}
	processed := Sources{
		Vertex:   v.Preprocessor.Process(src.Vertex),
		Fragment: v.Preprocessor.Process(src.Fragment),
	}
	var shaders []Shader
	defer func() {
		for _, sh := range shaders {
			v.Driver.DeleteShader(sh)
		}
	}()
	compile := func(stage Stage, code string) error {
		sh, err := v.Driver.CreateShader(stage)
		if err != nil {
			return fmt.Errorf("creating %s shader: %w", stage, err)
		}
		shaders = append(shaders, sh)
		if ok, log := v.Driver.CompileShader(sh, code); !ok {
			return &SourceError{Stage: stage, Log: log}
		}
		return nil
	}
	if err := compile(StageVertex, processed.Vertex); err != nil {
		v.debug("vertex rejected", err)
		return Sources{}, err
	}
	if err := compile(StageFragment, processed.Fragment); err != nil {
		v.debug("fragment rejected", err)
		return Sources{}, err
	}

	prog, err := v.Driver.CreateProgram()
	if err != nil {
		return Sources{}, fmt.Errorf("creating program: %w", err)
	}
	defer v.Driver.DeleteProgram(prog)
	for _, sh := range shaders {
		v.Driver.AttachShader(prog, sh)
	}
	if ok, log := v.Driver.LinkProgram(prog); !ok {
		err := &SourceError{Stage: StageLink, Log: log}
		v.debug("link failed", err)
		return Sources{}, err
	}
	if ok, log := v.Driver.ValidateProgram(prog); !ok {
		err := &SourceError{Stage: StageValidate, Log: log}
		v.debug("validation failed", err)
		return Sources{}, err
	}
	return processed, nil
}

func (v *Validator) debug(msg string, err error) {
	if v.Logger != nil {
		v.Logger.Debug(msg, slog.String("err", err.Error()))
	}
}
