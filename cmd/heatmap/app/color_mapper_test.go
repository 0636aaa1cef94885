package app

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColorTheme(t *testing.T) {
	theme, err := ParseColorTheme("Thermal")
	require.NoError(t, err)
	assert.Equal(t, ThermalTheme, theme)

	_, err = ParseColorTheme("rainbow")
	assert.Error(t, err)
}

func TestColorMapper_GetColor(t *testing.T) {
	cm := NewColorMapperWithSize(GrayscaleTheme, PowerBounds{Min: 0, Max: 10}, 11)

	low, high, mid := -5.0, 50.0, 10.0
	assert.Equal(t, color.RGBA{A: 255}, cm.GetColor(&low))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, cm.GetColor(&high))
	assert.Equal(t, cm.GetColor(&high), cm.GetColor(&mid))

	nan := math.NaN()
	assert.Equal(t, NoDataColor, cm.GetColor(nil))
	assert.Equal(t, NoDataColor, cm.GetColor(&nan))
}

func TestColorMapper_UnknownTheme(t *testing.T) {
	cm := NewColorMapper("rainbow", PowerBounds{Max: 1})
	want := NewColorMapper(EnhancedTheme, PowerBounds{Max: 1})
	for _, v := range []float64{0, 0.3, 0.7, 1} {
		assert.Equal(t, want.GetColor(&v), cm.GetColor(&v))
	}
}

func TestColorMapper_FlatBounds(t *testing.T) {
	cm := NewColorMapper(ClassicTheme, PowerBounds{Min: 3, Max: 3})
	v := 3.0
	assert.NotEqual(t, NoDataColor, cm.GetColor(&v))
}

func TestHSV_RGB(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, A: 255}, HSV{H: 0, S: 1, V: 1}.RGB())
	assert.Equal(t, color.RGBA{G: 255, A: 255}, HSV{H: 120, S: 1, V: 1}.RGB())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, HSV{H: 240, S: 1, V: 1}.RGB())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, HSV{H: 360, S: 1, V: 1}.RGB())
	assert.Equal(t, color.RGBA{R: 127, G: 127, B: 127, A: 255}, HSV{S: 0, V: 0.5}.RGB())
}
