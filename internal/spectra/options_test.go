package spectra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOptions_UnmarshalYAML(t *testing.T) {
	const doc = `
beam: "1"
timeRange:
  start: 2023-11-14T22:13:20Z
  stop: 2023-11-14T22:13:21.5Z
frequencyRange:
  min: 19531250
  max: 19921875
rebinDT: 250ms
rebinDF: 97656.25
edgeChannels: [1, 3]
correctBandpass: false
`
	var o Options
	require.NoError(t, yaml.Unmarshal([]byte(doc), &o))

	require.NotNil(t, o.Beam)
	assert.Equal(t, BeamID(1), *o.Beam)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), o.TimeRange.Start.UTC())
	assert.Equal(t, 1500*time.Millisecond, o.TimeRange.Stop.Sub(o.TimeRange.Start))
	assert.Equal(t, FrequencyRange{Min: 19531250, Max: 19921875}, *o.FrequencyRange)
	assert.Equal(t, Duration(250*time.Millisecond), *o.RebinDT)
	assert.Equal(t, 97656.25, *o.RebinDF)
	assert.Equal(t, EdgeChannels{Lower: 1, Upper: 3}, *o.EdgeChannels)
	assert.False(t, *o.CorrectBandpass)
}

func TestEdgeChannels_Scalar(t *testing.T) {
	var o Options
	require.NoError(t, yaml.Unmarshal([]byte("edgeChannels: 2\nbeam: 4"), &o))
	assert.Equal(t, EdgeChannels{Lower: 2, Upper: 2}, *o.EdgeChannels)
	assert.Equal(t, BeamID(4), *o.Beam)
	assert.Nil(t, o.TimeRange)
}

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"beam name", "beam: north"},
		{"edge triple", "edgeChannels: [1, 2, 3]"},
		{"edge map", "edgeChannels: {lower: 1}"},
		{"duration", "rebinDT: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o Options
			assert.Error(t, yaml.Unmarshal([]byte(tt.doc), &o))
		})
	}
}

func TestParseBeamID(t *testing.T) {
	id, err := ParseBeamID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, BeamID(12), id)

	_, err = ParseBeamID("A")
	assert.True(t, IsConfigurationError(err))
}
