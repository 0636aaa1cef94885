package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64
	OutputFile    string
	Format        ImageFormat
	Polarization  string // First polarization of the session when empty
	Scale         Scale
	Theme         ColorTheme
	TimeZone      *time.Location
	PixelSize     int
	MinPower      *float64
	MaxPower      *float64
	MinFrequency  *float64
	MaxFrequency  *float64
	MinTimestamp  *time.Time
	MaxTimestamp  *time.Time
	NoAnnotations bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:    ImagePNG,
		Scale:     ScaleDB,
		Theme:     EnhancedTheme,
		TimeZone:  time.UTC,
		PixelSize: 1,
	}
}

// NewConfigFromCLI parses the command line arguments.
func NewConfigFromCLI() (*Config, error) {
	return ParseConfig(flag.CommandLine, os.Args[1:])
}

// ParseConfig parses arguments into a Config using fs.
func ParseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var imageFormat, scale, theme, tz string
	var minPower, maxPower, minFreq, maxFreq float64
	var minTime, maxTime string
	fs.StringVar(&c.DBPath, "db", "", "Path to the database file")
	fs.Int64Var(&c.SessionID, "s", 1, "Session ID")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&c.Polarization, "p", "", "Polarization product to render, defaults to the first stored one")
	fs.StringVar(&scale, "scale", string(ScaleDB), "Intensity scale. [db, linear]")
	fs.StringVar(&theme, "theme", string(EnhancedTheme), "Color theme. [enhanced, classic, grayscale, jungle, thermal, marine]")
	fs.StringVar(&tz, "tz", "UTC", "Time zone of the time labels")
	fs.IntVar(&c.PixelSize, "px", 1, "Size in pixels of every sample")
	fs.Float64Var(&minPower, "min-power", 0, "Manual bottom of the color scale")
	fs.Float64Var(&maxPower, "max-power", 0, "Manual top of the color scale")
	fs.Float64Var(&minFreq, "min-freq", 0, "Lowest frequency to render, Hz")
	fs.Float64Var(&maxFreq, "max-freq", 0, "Highest frequency to render, Hz")
	fs.StringVar(&minTime, "start", "", "Earliest time to render, RFC 3339")
	fs.StringVar(&maxTime, "end", "", "Latest time to render, RFC 3339")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disabled annotations such as time and frequency scales")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-power":
			c.MinPower = &minPower
		case "max-power":
			c.MaxPower = &maxPower
		case "min-freq":
			c.MinFrequency = &minFreq
		case "max-freq":
			c.MaxFrequency = &maxFreq
		case "start":
			c.MinTimestamp, err = parseTime(minTime, err)
		case "end":
			c.MaxTimestamp, err = parseTime(maxTime, err)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Format = ImageFormat(strings.ToLower(imageFormat))
	c.Scale = Scale(strings.ToLower(scale))

	switch {
	case c.DBPath == "":
		err = errors.New("db path is required")
	case c.SessionID <= 0:
		err = errors.New("session id is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.PixelSize <= 0:
		err = fmt.Errorf("invalid pixel size: %d", c.PixelSize)
	case c.Scale != ScaleDB && c.Scale != ScaleLinear:
		err = fmt.Errorf("invalid scale: %s", scale)
	case (c.MinPower == nil) != (c.MaxPower == nil):
		err = errors.New("min-power and max-power must be set together")
	case (c.MinFrequency == nil) != (c.MaxFrequency == nil):
		err = errors.New("min-freq and max-freq must be set together")
	case (c.MinTimestamp == nil) != (c.MaxTimestamp == nil):
		err = errors.New("start and end must be set together")
	}
	if err == nil {
		if _, ok := validImageFormats[c.Format]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		}
	}
	if err == nil {
		c.Theme, err = ParseColorTheme(theme)
	}
	if err == nil {
		c.TimeZone, err = time.LoadLocation(tz)
	}
	if err != nil {
		fs.Usage()
		return nil, err
	}

	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

func parseTime(s string, prev error) (*time.Time, error) {
	if prev != nil {
		return nil, prev
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return &t, nil
}
