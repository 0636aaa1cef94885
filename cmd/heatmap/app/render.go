package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkHeight = 5
	pixelsPerLabel = 150.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

// BorderConfig defines the sizes of white space around the spectrum
type BorderConfig struct {
	Top    int // Space for frequency scale
	Left   int // Space for time scale
	Bottom int // Space for information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for spectrum visualization
type RenderConfig struct {
	TimeFormat     string         // Format string for time labels
	DatetimeFormat string         // Format string for the information bar
	Location       *time.Location // Timezone for time display

	FontSize   float64
	ColorTheme ColorTheme
	PixelSize  int          // Side of the square drawn for every sample
	Bounds     *PowerBounds // Fixed intensity range, derived from the data when nil

	NoAnnotations bool
	BorderConfig  BorderConfig
}

// SpectrumRenderer draws a heatmap of spectrum data, time running down and
// frequency running right.
type SpectrumRenderer struct {
	config RenderConfig
}

// NewSpectrumRenderer creates a new spectrum renderer with the given configuration
func NewSpectrumRenderer(config RenderConfig) (*SpectrumRenderer, error) {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.PixelSize <= 0 {
		config.PixelSize = 1
	}
	if config.Bounds != nil && config.Bounds.Max <= config.Bounds.Min {
		return nil, fmt.Errorf("invalid intensity range [%f, %f]", config.Bounds.Min, config.Bounds.Max)
	}

	if config.NoAnnotations {
		config.BorderConfig = BorderConfig{}
	} else {
		if config.BorderConfig.Top == 0 {
			config.BorderConfig.Top = defaultTopBorder
		}
		if config.BorderConfig.Left == 0 {
			config.BorderConfig.Left = defaultLeftBorder
		}
		if config.BorderConfig.Bottom == 0 {
			config.BorderConfig.Bottom = defaultBottomBorder
		}
		if config.BorderConfig.Right == 0 {
			config.BorderConfig.Right = defaultRightBorder
		}
	}

	return &SpectrumRenderer{config: config}, nil
}

// Render creates an image of the spectrum data with annotations
func (r *SpectrumRenderer) Render(spec *SpectrumData) (*image.RGBA, error) {
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("no data to render")
	}

	borders := r.config.BorderConfig
	width := spec.Width * r.config.PixelSize
	height := spec.Height * r.config.PixelSize

	img := image.NewRGBA(image.Rect(0, 0, width+borders.Left+borders.Right, height+borders.Top+borders.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	area := image.Rect(borders.Left, borders.Top, borders.Left+width, borders.Top+height)

	bounds := spec.Bounds()
	if r.config.Bounds != nil {
		bounds = *r.config.Bounds
	}
	colorMap := NewColorMapper(r.config.ColorTheme, bounds)

	if !r.config.NoAnnotations {
		ann, err := newAnnotator(annotatorConfig{
			TimeFormat:     r.config.TimeFormat,
			DatetimeFormat: r.config.DatetimeFormat,
			Location:       r.config.Location,
			FontSize:       r.config.FontSize,
			Borders:        borders,
		})
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, spec, bounds); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	r.renderSpectrum(img, area, spec, colorMap)
	return img, nil
}

// renderSpectrum draws the samples using the color map
func (r *SpectrumRenderer) renderSpectrum(img *image.RGBA, area image.Rectangle, spec *SpectrumData, colorMap *ColorMapper) {
	px := r.config.PixelSize
	for y, row := range spec.Rows {
		for x := range spec.Width {
			c := NoDataColor
			if x < len(row) {
				c = colorMap.GetColor(row[x])
			}
			cell := image.Rect(area.Min.X+x*px, area.Min.Y+y*px, area.Min.X+(x+1)*px, area.Min.Y+(y+1)*px)
			draw.Draw(img, cell, image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
}

type annotatorConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, spec *SpectrumData, bounds PowerBounds) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing frequency scale", func() error { return a.drawFrequencyScale(img, area, spec) }},
		{"drawing time scale", func() error { return a.drawTimeScale(img, area, spec) }},
		{"drawing info bar", func() error { return a.drawInfoBar(img, area, spec, bounds) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawFrequencyScale(img *image.RGBA, area image.Rectangle, spec *SpectrumData) error {
	span := spec.FrequencyMax - spec.FrequencyMin
	if span <= 0 {
		return nil
	}

	step := calculateNiceFrequencyStep(span, area.Dx())
	textY := area.Min.Y - a.fontHeight()/2

	for freq := math.Ceil(spec.FrequencyMin/step) * step; freq <= spec.FrequencyMax; freq += step {
		x := area.Min.X + int((freq-spec.FrequencyMin)/span*float64(area.Dx()-1))

		for y := area.Min.Y - tickMarkHeight; y < area.Min.Y; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatFrequency(freq)
		width := font.MeasureString(a.fontFace, label)
		if _, err := a.context.DrawString(label, freetype.Pt(x-width.Round()/2, textY)); err != nil {
			return fmt.Errorf("drawing frequency label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, area image.Rectangle, spec *SpectrumData) error {
	duration := spec.TimestampEnd.Sub(spec.TimestampStart)
	if duration <= 0 {
		return nil
	}

	step := calculateNiceTimeStep(duration)
	metrics := a.fontFace.Metrics()

	first := spec.TimestampStart.Truncate(step)
	if first.Before(spec.TimestampStart) {
		first = first.Add(step)
	}
	for ts := first; !ts.After(spec.TimestampEnd); ts = ts.Add(step) {
		ratio := float64(ts.Sub(spec.TimestampStart)) / float64(duration)
		y := area.Min.Y + int(ratio*float64(area.Dy()-1))

		for x := area.Min.X - tickMarkHeight; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		textY := y + a.fontHeight()/2 - metrics.Descent.Round()
		label := ts.In(a.config.Location).Format(a.config.TimeFormat)
		if _, err := a.context.DrawString(label, freetype.Pt(5, textY)); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, area image.Rectangle, spec *SpectrumData, bounds PowerBounds) error {
	var sb strings.Builder

	sb.WriteString(spec.Polarization)
	sb.WriteString("; ")
	sb.WriteString(formatFrequencyRange(spec.FrequencyMin, spec.FrequencyMax))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		spec.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		spec.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat)))

	unit := ""
	if spec.Scale == ScaleDB {
		unit = " dB"
	}
	sb.WriteString(fmt.Sprintf("; Scale: %.2f - %.2f%s", bounds.Min, bounds.Max, unit))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - (a.config.Borders.Bottom-a.fontHeight())/2 - metrics.Descent.Round()

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(area.Min.X, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func calculateNiceFrequencyStep(span float64, width int) float64 {
	targetStep := span / math.Max(float64(width)/pixelsPerLabel, 1)

	// 1, 2 and 5 times a power of ten
	magnitude := math.Pow(10, math.Floor(math.Log10(targetStep)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * magnitude; step >= targetStep {
			return step
		}
	}
	return 10 * magnitude
}

func formatFrequency(freq float64) string {
	v, prefix := humanize.ComputeSI(freq)
	return fmt.Sprintf("%s %sHz", humanize.FtoaWithDigits(v, 3), prefix)
}

func formatFrequencyRange(fmin, fmax float64) string {
	return fmt.Sprintf("Freq: %s - %s", formatFrequency(fmin), formatFrequency(fmax))
}

func calculateNiceTimeStep(duration time.Duration) time.Duration {
	rough := duration / 8 // Aim for about 8 time labels

	nice := []time.Duration{
		time.Second,
		5 * time.Second,
		10 * time.Second,
		30 * time.Second,
		time.Minute,
		5 * time.Minute,
		10 * time.Minute,
		30 * time.Minute,
		time.Hour,
		2 * time.Hour,
		4 * time.Hour,
	}
	for _, step := range nice {
		if rough <= step {
			return step
		}
	}
	return 6 * time.Hour
}
