// Package gldriver implements the editor's driver interfaces on an OpenGL
// 4.6 core context using go-gl. All methods must be called from the thread
// the context is current on.
package gldriver

import "errors"

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("gldriver: OpenGL requires cgo and is not supported on TinyGo")

// ErrContextLost is returned by [Driver.Err] once the context was reset.
var ErrContextLost = errors.New("gldriver: graphics context lost")
