//go:build tinygo || !cgo

package sdfaux

import "github.com/soypat/sdfed/gldriver"

func ui(cfg UIConfig) error {
	return gldriver.ErrUnavailable
}
