package spectrum

import (
	"math"
	"time"
)

// Session describes one query result persisted by the storage layer.
type Session struct {
	ID                int64     `json:"ID"`
	RunID             string    `json:"runID"`                   // Identifier of the run that produced the result
	CreatedAt         time.Time `json:"createdAt"`               // When the result was stored
	Source            string    `json:"source"`                  // Path of the block file the result was read from
	Beam              int       `json:"beam"`                    // Selected beam
	Polarizations     []string  `json:"polarizations"`           // Polarization products, in storage order
	TimeLeftover      int       `json:"timeLeftover"`            // Time samples dropped by averaging
	FrequencyLeftover int       `json:"frequencyLeftover"`       // Frequency samples dropped by averaging
	Config            *string   `json:"config,string,omitempty"` // Optional query configuration in JSON format
}

// Result is a materialized time-frequency selection of one or more
// polarization products.
type Result struct {
	Time          []float64 `json:"time" msgpack:"time"`           // Unix seconds of every spectrum
	Frequency     []float64 `json:"frequency" msgpack:"frequency"` // Hz of every channel
	Polarizations []string  `json:"polarizations" msgpack:"polarizations"`

	// Data is laid out as [time][frequency][polarization]. Invalid samples are NaN.
	Data []float32 `json:"-" msgpack:"data"`

	TimeLeftover      int `json:"timeLeftover" msgpack:"timeLeftover"`
	FrequencyLeftover int `json:"frequencyLeftover" msgpack:"frequencyLeftover"`

	// Warnings holds the non-fatal conditions met while computing the result.
	Warnings []error `json:"-" msgpack:"-"`
}

// Shape returns the length of the time, frequency and polarization axes.
func (r *Result) Shape() (times, freqs, pols int) {
	return len(r.Time), len(r.Frequency), len(r.Polarizations)
}

// Empty reports whether the result holds no sample.
func (r *Result) Empty() bool {
	return len(r.Data) == 0
}

// At returns the value at time t, frequency f and polarization p.
func (r *Result) At(t, f, p int) float32 {
	return r.Data[(t*len(r.Frequency)+f)*len(r.Polarizations)+p]
}

// Timestamps converts the time axis to time.Time values.
func (r *Result) Timestamps() []time.Time {
	out := make([]time.Time, len(r.Time))
	for i, s := range r.Time {
		sec, frac := math.Modf(s)
		out[i] = time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
	}
	return out
}

// Point is a single value of a polarization product at a frequency.
type Point struct {
	Frequency float64  `json:"frequency"`
	Value     *float64 `json:"value,omitempty"` // nil if the sample was invalid
}

// Spectrum is one polarization product across frequency at a point in time.
type Spectrum struct {
	Timestamp      time.Time `json:"timestamp"`
	Polarization   string    `json:"polarization"`
	FrequencyStart float64   `json:"frequencyStart"`
	FrequencyEnd   float64   `json:"frequencyEnd"`
	Samples        []Point   `json:"samples,omitempty"`
}

// Spectra splits the result into one Spectrum per time and polarization.
func (r *Result) Spectra() []Spectrum {
	times, freqs, pols := r.Shape()
	if r.Empty() || freqs == 0 {
		return nil
	}

	stamps := r.Timestamps()
	out := make([]Spectrum, 0, times*pols)
	for t := range times {
		for p := range pols {
			s := Spectrum{
				Timestamp:      stamps[t],
				Polarization:   r.Polarizations[p],
				FrequencyStart: r.Frequency[0],
				FrequencyEnd:   r.Frequency[freqs-1],
				Samples:        make([]Point, freqs),
			}
			for f := range freqs {
				s.Samples[f].Frequency = r.Frequency[f]
				if v := float64(r.At(t, f, p)); !math.IsNaN(v) {
					s.Samples[f].Value = &v
				}
			}
			out = append(out, s)
		}
	}
	return out
}
