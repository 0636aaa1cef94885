package storage

import (
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && cErr != sql.ErrTxDone && *err == nil {
		*err = cErr
	}
}

func toSampleData(sessionID int64, r *spectrum.Result, t, f, p int) sampleData {
	var value sql.NullFloat64
	if v := float64(r.At(t, f, p)); !math.IsNaN(v) {
		value.Float64 = v
		value.Valid = true
	}

	return sampleData{
		SessionID:    sessionID,
		Timestamp:    r.Time[t],
		Frequency:    r.Frequency[f],
		Polarization: r.Polarizations[p],
		Value:        value,
	}
}

func toSession(d *sessionData) *spectrum.Session {
	sess := &spectrum.Session{
		ID:                d.ID,
		RunID:             d.RunID,
		CreatedAt:         d.CreatedAt,
		Source:            d.Source,
		Beam:              d.Beam,
		TimeLeftover:      d.TimeLeftover,
		FrequencyLeftover: d.FrequencyLeftover,
	}
	if d.Polarizations != "" {
		sess.Polarizations = strings.Split(d.Polarizations, ",")
	}
	if d.Config.Valid {
		sess.Config = &d.Config.String
	}
	return sess
}

func unixTime(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
