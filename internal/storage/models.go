package storage

import (
	"database/sql"
	"time"
)

type sessionData struct {
	ID                int64
	RunID             string
	CreatedAt         time.Time
	Source            string
	Beam              int
	Polarizations     string
	TimeLeftover      int
	FrequencyLeftover int
	Config            sql.NullString
}

type sampleData struct {
	SessionID    int64
	Timestamp    float64
	Frequency    float64
	Polarization string
	Value        sql.NullFloat64
}
