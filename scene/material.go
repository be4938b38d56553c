package scene

import (
	"image/color"

	"github.com/soypat/geometry/ms3"
	"golang.org/x/image/colornames"
)

// MaxMaterials is the fixed palette size. Materials are never added or removed.
const MaxMaterials = 8

// Index of refraction range accepted by materials.
const (
	MinIOR = 1.0
	MaxIOR = 2.2
)

// MaterialID indexes the palette. It equals the material's slot.
type MaterialID uint8

// IsValid reports whether id addresses a palette slot.
func (id MaterialID) IsValid() bool { return id < MaxMaterials }

// Material is a palette entry. Shapes reference materials by id, so editing
// a material changes the look of every shape using it.
type Material struct {
	ID            MaterialID
	Name          string
	BaseColor     ms3.Vec // Linear RGB in [0,1].
	UseGradient   bool
	GradientColor ms3.Vec
	Roughness     float32
	Metalness     float32
	IOR           float32
	Transmission  float32
}

func (m *Material) sanitize() {
	m.BaseColor = clampColor(m.BaseColor)
	m.GradientColor = clampColor(m.GradientColor)
	m.Roughness = clampf(m.Roughness, 0, 1)
	m.Metalness = clampf(m.Metalness, 0, 1)
	m.IOR = clampf(m.IOR, MinIOR, MaxIOR)
	m.Transmission = clampf(m.Transmission, 0, 1)
}

// ColorVec converts c to an RGB vector with components in [0,1]. Alpha is discarded.
func ColorVec(c color.Color) ms3.Vec {
	r, g, b, _ := c.RGBA()
	return ms3.Vec{X: float32(r) / 0xffff, Y: float32(g) / 0xffff, Z: float32(b) / 0xffff}
}

func clampColor(c ms3.Vec) ms3.Vec {
	return ms3.Vec{X: clampf(c.X, 0, 1), Y: clampf(c.Y, 0, 1), Z: clampf(c.Z, 0, 1)}
}

// DefaultPalette returns the stock materials every registry starts with.
func DefaultPalette() [MaxMaterials]Material {
	slate := color.RGBA{R: 0x66, G: 0x99, B: 0xcc, A: 0xff}
	copper := color.RGBA{R: 0xcc, G: 0x88, B: 0x44, A: 0xff}
	p := [MaxMaterials]Material{
		{Name: "slate", BaseColor: ColorVec(slate), GradientColor: ColorVec(copper), Roughness: 0.4, IOR: 1.5},
		{Name: "ivory", BaseColor: ColorVec(colornames.Ivory), GradientColor: ColorVec(colornames.Wheat), Roughness: 0.6, IOR: 1.5},
		{Name: "gold", BaseColor: ColorVec(colornames.Gold), GradientColor: ColorVec(colornames.Goldenrod), Roughness: 0.25, Metalness: 1, IOR: 1.5},
		{Name: "chrome", BaseColor: ColorVec(colornames.Silver), GradientColor: ColorVec(colornames.White), Roughness: 0.1, Metalness: 1, IOR: 1.5},
		{Name: "plastic", BaseColor: ColorVec(colornames.Crimson), GradientColor: ColorVec(colornames.Darkred), Roughness: 0.5, IOR: 1.46},
		{Name: "glass", BaseColor: ColorVec(colornames.Lightcyan), GradientColor: ColorVec(colornames.White), Roughness: 0.05, IOR: 1.5, Transmission: 0.9},
		{Name: "matte", BaseColor: ColorVec(colornames.Seagreen), GradientColor: ColorVec(colornames.Darkolivegreen), Roughness: 0.9, IOR: 1.5},
		{Name: "sunset", BaseColor: ColorVec(colornames.Darkorange), UseGradient: true, GradientColor: ColorVec(colornames.Orchid), Roughness: 0.35, IOR: 1.5},
	}
	for i := range p {
		p[i].ID = MaterialID(i)
	}
	return p
}
