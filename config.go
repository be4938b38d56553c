package sdfed

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/sdfed/glbuild"
	"github.com/soypat/sdfed/glcap"
	"github.com/soypat/sdfed/health"
	"github.com/soypat/sdfed/hotreload"
	"github.com/soypat/sdfed/scene"
	"golang.org/x/image/colornames"
)

// Config configures a [Session] and the editor window around it.
type Config struct {
	Window    WindowConfig     `toml:"window"`
	Shaders   ShaderConfig     `toml:"shaders"`
	Render    RenderConfig     `toml:"render"`
	Health    HealthConfig     `toml:"health"`
	Capacity  CapacityConfig   `toml:"capacity"`
	Materials []MaterialConfig `toml:"material"`
	Shapes    []ShapeConfig    `toml:"shape"`
}

// WindowConfig sizes and titles the editor window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// ShaderConfig locates the scene program sources and sets how edits to them are validated.
type ShaderConfig struct {
	// Vertex and Fragment are paths to the editable sources. Empty uses the
	// embedded sources.
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	// Version is the #version directive injected in every source.
	Version    string `toml:"version"`
	DebounceMS int    `toml:"debounce_ms"`
}

// Debounce returns the hot-reload quiet period.
func (sc ShaderConfig) Debounce() time.Duration {
	return time.Duration(sc.DebounceMS) * time.Millisecond
}

// RenderConfig holds the initial view and the ray marcher's step counts.
type RenderConfig struct {
	Mode               string  `toml:"mode"`
	MarchSteps         int     `toml:"march_steps"`
	ShadowSteps        int     `toml:"shadow_steps"`
	RefractSteps       int     `toml:"refract_steps"`
	ShowFloor          bool    `toml:"show_floor"`
	SliceOffset        float32 `toml:"slice_offset"`
	SliceYaw           float32 `toml:"slice_yaw"`
	SlicePitch         float32 `toml:"slice_pitch"`
	ContourSpacing     float32 `toml:"contour_spacing"`
	ContourWidth       float32 `toml:"contour_width"`
	SliceObjectOpacity float32 `toml:"slice_object_opacity"`
	SweepSpeed         float32 `toml:"sweep_speed"`
}

// HealthConfig tunes runtime fallback.
type HealthConfig struct {
	// Threshold is the number of consecutive failing frames before degrading.
	Threshold int `toml:"threshold"`
}

// CapacityConfig bounds the probed shape capacity.
type CapacityConfig struct {
	// FastBoot bounds the shape capacity of the first program.
	FastBoot int `toml:"fast_boot"`
}

// MaterialConfig overrides fields of a palette material. Nil fields keep
// the default palette's value. Colors are CSS color names or #rrggbb.
type MaterialConfig struct {
	ID           int      `toml:"id"`
	Name         string   `toml:"name"`
	Color        string   `toml:"color"`
	Gradient     string   `toml:"gradient"`
	UseGradient  *bool    `toml:"use_gradient"`
	Roughness    *float32 `toml:"roughness"`
	Metalness    *float32 `toml:"metalness"`
	IOR          *float32 `toml:"ior"`
	Transmission *float32 `toml:"transmission"`
}

// ShapeConfig is a shape of the initial scene.
type ShapeConfig struct {
	Kind     string     `toml:"kind"`
	Op       string     `toml:"op"`
	Position [3]float32 `toml:"position"`
	Rotation [3]float32 `toml:"rotation"`
	Radius   float32    `toml:"radius"`
	Extents  [3]float32 `toml:"extents"`
	Material int        `toml:"material"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Title: "sdfed", Width: 1280, Height: 720},
		Shaders: ShaderConfig{
			Version:    glbuild.VersionStr,
			DebounceMS: int(hotreload.DefaultDebounce / time.Millisecond),
		},
		Render: RenderConfig{
			Mode:               ModeShaded.String(),
			MarchSteps:         128,
			ShadowSteps:        32,
			RefractSteps:       48,
			ShowFloor:          true,
			SliceYaw:           0,
			SlicePitch:         90,
			ContourSpacing:     0.1,
			ContourWidth:       0.01,
			SliceObjectOpacity: 0.25,
			SweepSpeed:         1,
		},
		Health:   HealthConfig{Threshold: health.DefaultThreshold},
		Capacity: CapacityConfig{FastBoot: glcap.FastBootCeiling},
		Shapes: []ShapeConfig{
			{Kind: "sphere", Radius: scene.DefaultRadius},
		},
	}
}

// LoadConfig reads a TOML configuration file over [DefaultConfig].
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}
	if err := ParseConfig(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML data over cfg and validates the result.
// Unknown keys are rejected. A file declaring any [[shape]] replaces the
// initial scene of cfg.
func ParseConfig(data []byte, cfg *Config) error {
	shapes := cfg.Shapes
	cfg.Shapes = nil
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	if cfg.Shapes == nil {
		cfg.Shapes = shapes // Tables are replaced, not merged.
	}
	return cfg.Validate()
}

// Validate checks value ranges and names in cfg.
func (cfg *Config) Validate() error {
	var errs []error
	if _, err := ParseMode(cfg.Render.Mode); err != nil {
		errs = append(errs, err)
	}
	if cfg.Shaders.DebounceMS < 0 {
		errs = append(errs, errors.New("negative shader debounce"))
	}
	for i, m := range cfg.Materials {
		if m.ID < 0 || m.ID >= scene.MaxMaterials {
			errs = append(errs, fmt.Errorf("material %d: id %d out of range [0,%d)", i, m.ID, scene.MaxMaterials))
		}
		for _, c := range []string{m.Color, m.Gradient} {
			if c == "" {
				continue
			} else if _, err := ParseColor(c); err != nil {
				errs = append(errs, fmt.Errorf("material %d: %w", i, err))
			}
		}
	}
	for i, s := range cfg.Shapes {
		if _, err := parseKind(s.Kind); err != nil {
			errs = append(errs, fmt.Errorf("shape %d: %w", i, err))
		}
		if _, err := parseOp(s.Op); err != nil {
			errs = append(errs, fmt.Errorf("shape %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// defines returns the #define values programs are built with.
func (cfg *Config) defines(maxShapes int) map[string]int {
	defs := map[string]int{
		glbuild.DefineMaxShapes:    maxShapes,
		glbuild.DefineMaxMaterials: scene.MaxMaterials,
	}
	if cfg.Render.MarchSteps > 0 {
		defs[glbuild.DefineMaxSteps] = cfg.Render.MarchSteps
	}
	if cfg.Render.ShadowSteps > 0 {
		defs[glbuild.DefineShadowSteps] = cfg.Render.ShadowSteps
	}
	if cfg.Render.RefractSteps > 0 {
		defs[glbuild.DefineRefractSteps] = cfg.Render.RefractSteps
	}
	return defs
}

// view returns the initial view parameters.
func (cfg *Config) view() View {
	mode, _ := ParseMode(cfg.Render.Mode)
	r := cfg.Render
	return View{
		Mode:               mode,
		ShowFloor:          r.ShowFloor,
		SliceOffset:        r.SliceOffset,
		SliceYaw:           r.SliceYaw,
		SlicePitch:         r.SlicePitch,
		ContourSpacing:     r.ContourSpacing,
		ContourWidth:       r.ContourWidth,
		SliceObjectOpacity: r.SliceObjectOpacity,
		SweepSpeed:         r.SweepSpeed,
	}
}

// applyScene writes palette overrides and the initial shapes into reg.
// Shapes past the registry capacity are dropped.
func (cfg *Config) applyScene(reg *scene.Registry) (dropped int) {
	for _, mc := range cfg.Materials {
		m, ok := reg.Material(scene.MaterialID(mc.ID))
		if !ok {
			continue
		}
		if mc.Name != "" {
			m.Name = mc.Name
		}
		if c, err := ParseColor(mc.Color); err == nil {
			m.BaseColor = c
		}
		if c, err := ParseColor(mc.Gradient); err == nil {
			m.GradientColor = c
		}
		if mc.UseGradient != nil {
			m.UseGradient = *mc.UseGradient
		}
		setf(&m.Roughness, mc.Roughness)
		setf(&m.Metalness, mc.Metalness)
		setf(&m.IOR, mc.IOR)
		setf(&m.Transmission, mc.Transmission)
		reg.SetMaterial(m)
	}
	for _, sc := range cfg.Shapes {
		kind, err := parseKind(sc.Kind)
		if err != nil {
			continue
		}
		op, _ := parseOp(sc.Op)
		opts := []scene.ShapeOption{
			scene.WithPosition(vec(sc.Position)),
			scene.WithRotation(vec(sc.Rotation)),
			scene.WithMaterial(scene.MaterialID(sc.Material)),
			scene.WithOp(op),
		}
		if sc.Radius > 0 {
			opts = append(opts, scene.WithRadius(sc.Radius))
		}
		if sc.Extents != [3]float32{} {
			opts = append(opts, scene.WithExtents(vec(sc.Extents)))
		}
		if _, err := reg.AddShape(kind, opts...); err != nil {
			dropped++
		}
	}
	return dropped
}

func setf(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

func vec(v [3]float32) ms3.Vec { return ms3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func parseKind(s string) (scene.Kind, error) {
	switch strings.ToLower(s) {
	case "sphere":
		return scene.KindSphere, nil
	case "box":
		return scene.KindBox, nil
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

func parseOp(s string) (scene.Op, error) {
	switch strings.ToLower(s) {
	case "", "union":
		return scene.OpUnion, nil
	case "intersect", "intersection":
		return scene.OpIntersect, nil
	case "subtract", "difference":
		return scene.OpSubtract, nil
	}
	return 0, fmt.Errorf("unknown shape op %q", s)
}

// ParseColor parses a CSS color name or a #rrggbb hex color into RGB
// components in [0,1].
func ParseColor(s string) (ms3.Vec, error) {
	if hexStr, ok := strings.CutPrefix(s, "#"); ok {
		if len(hexStr) != 6 {
			return ms3.Vec{}, fmt.Errorf("bad hex color %q", s)
		}
		var rgb [3]byte
		if _, err := hex.Decode(rgb[:], []byte(hexStr)); err != nil {
			return ms3.Vec{}, fmt.Errorf("bad hex color %q: %w", s, err)
		}
		return ms3.Vec{X: float32(rgb[0]) / 255, Y: float32(rgb[1]) / 255, Z: float32(rgb[2]) / 255}, nil
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return ms3.Vec{}, fmt.Errorf("unknown color %q", s)
	}
	return scene.ColorVec(c), nil
}
