package app

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// ColorTheme names a color scheme for intensity visualization.
type ColorTheme string

const (
	EnhancedTheme  ColorTheme = "enhanced"  // Black to blue to cyan to yellow to red
	ClassicTheme   ColorTheme = "classic"   // Blue to red transition
	GrayscaleTheme ColorTheme = "grayscale" // Black to white transition
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow transition
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white

	DefaultColorMapSize = 256
)

// NoDataColor marks invalid samples, flagged channels and corrupt blocks.
var NoDataColor color.Color = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}

var colorThemes = map[ColorTheme]func(float64) color.Color{
	EnhancedTheme:  enhanced,
	ClassicTheme:   classic,
	GrayscaleTheme: grayscale,
	JungleTheme:    jungle,
	ThermalTheme:   thermal,
	MarineTheme:    marine,
}

// ParseColorTheme resolves a theme name, case-insensitively.
func ParseColorTheme(name string) (ColorTheme, error) {
	t := ColorTheme(strings.ToLower(name))
	if _, ok := colorThemes[t]; !ok {
		return "", fmt.Errorf("unknown color theme: %s", name)
	}
	return t, nil
}

// ColorMapper maps intensities to colors of a theme through a pre-computed
// color map spanning the intensity bounds.
type ColorMapper struct {
	colorMap    []color.Color
	boundsMin   float64
	boundsRange float64
}

// NewColorMapper creates a color mapper of DefaultColorMapSize colors.
func NewColorMapper(theme ColorTheme, bounds PowerBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a color mapper with size pre-computed colors.
// An unknown theme falls back to EnhancedTheme.
func NewColorMapperWithSize(theme ColorTheme, bounds PowerBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}
	fn, ok := colorThemes[theme]
	if !ok {
		fn = enhanced
	}

	cm := &ColorMapper{colorMap: make([]color.Color, size)}
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the intensities mapped to the first and last color.
func (cm *ColorMapper) UpdateBounds(bounds PowerBounds) {
	cm.boundsMin = bounds.Min
	cm.boundsRange = bounds.Max - bounds.Min
}

// GetColor returns the color of an intensity, clamped to the bounds.
func (cm *ColorMapper) GetColor(power *float64) color.Color {
	if power == nil || math.IsNaN(*power) {
		return NoDataColor
	}
	if cm.boundsRange <= 0 {
		return cm.colorMap[len(cm.colorMap)/2]
	}

	index := int((*power - cm.boundsMin) / cm.boundsRange * float64(len(cm.colorMap)-1))
	return cm.colorMap[min(max(index, 0), len(cm.colorMap)-1)]
}

// HSV represents a color in HSV (Hue, Saturation, Value) color space
type HSV struct {
	H float64 // Hue angle in degrees [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value/Brightness [0-1]
}

// RGB converts HSV to RGB color space
func (hsv HSV) RGB() color.Color {
	val := math.Max(0, math.Min(1, hsv.V))
	sat := math.Max(0, math.Min(1, hsv.S))

	if sat == 0 {
		v := uint8(val * 255)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	h := math.Mod(hsv.H, 360)
	if h < 0 {
		h += 360
	}
	h /= 60

	i := int(h)
	f := h - float64(i)

	v := uint8(val * 255)
	p := uint8(val * (1 - sat) * 255)
	q := uint8(val * (1 - sat*f) * 255)
	t := uint8(val * (1 - sat*(1-f)) * 255)

	switch i {
	case 0:
		return color.RGBA{R: v, G: t, B: p, A: 255}
	case 1:
		return color.RGBA{R: q, G: v, B: p, A: 255}
	case 2:
		return color.RGBA{R: p, G: v, B: t, A: 255}
	case 3:
		return color.RGBA{R: p, G: q, B: v, A: 255}
	case 4:
		return color.RGBA{R: t, G: p, B: v, A: 255}
	default:
		return color.RGBA{R: v, G: p, B: q, A: 255}
	}
}

func classic(x float64) color.Color {
	return HSV{H: 240 - x*240, S: 0.9 + x*0.1, V: math.Pow(x, 0.7)}.RGB()
}

func grayscale(x float64) color.Color {
	v := uint8(math.Pow(x, 0.7) * 255)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

func jungle(x float64) color.Color {
	return HSV{H: 120 - x*60, S: 1, V: 0.3 + math.Pow(x, 0.6)*0.7}.RGB()
}

func thermal(x float64) color.Color {
	switch {
	case x < 1.0/3:
		return color.RGBA{R: uint8(x * 3 * 255), A: 255}
	case x < 2.0/3:
		return color.RGBA{R: 255, G: uint8((x - 1.0/3) * 3 * 255), A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (x-2.0/3)*3) * 255), A: 255}
	}
}

func marine(x float64) color.Color {
	return HSV{H: 240 - x*60, S: 1 - x*0.8, V: 0.3 + math.Pow(x, 0.6)*0.7}.RGB()
}

// enhanced stretches the low end of the range, where most of the band sits.
func enhanced(x float64) color.Color {
	e := math.Pow(x, 0.7)

	switch {
	case x < 0.25:
		return HSV{H: 240, S: 1, V: e * 4}.RGB()
	case x < 0.5:
		return HSV{H: 240 - (x-0.25)*240, S: 1, V: e * 1.5}.RGB()
	case x < 0.75:
		return HSV{H: 180 - (x-0.5)*4*120, S: 1, V: e * 1.5}.RGB()
	default:
		return HSV{H: 60 - (x-0.75)*4*60, S: 1, V: 1}.RGB()
	}
}
