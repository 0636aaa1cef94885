package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id             TEXT     NOT NULL,
    created_at         DATETIME NOT NULL,
    source             TEXT     NOT NULL,
    beam               INTEGER  NOT NULL,
    polarizations      TEXT     NOT NULL DEFAULT '',
    time_leftover      INTEGER  NOT NULL DEFAULT 0,
    frequency_leftover INTEGER  NOT NULL DEFAULT 0,
    config             TEXT
);

CREATE TABLE IF NOT EXISTS samples (
    session_id   INTEGER NOT NULL REFERENCES sessions (id),
    timestamp    REAL    NOT NULL, -- unix seconds
    frequency    REAL    NOT NULL, -- Hz
    polarization TEXT    NOT NULL,
    value        REAL              -- NULL when the sample is invalid
);`

	// Indexes are built once the samples are in, inserts run faster without them.
	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_samples_session
    ON samples (session_id, timestamp, polarization, frequency);`

	insertSessionSQL = `
INSERT INTO sessions (
                      run_id,
                      created_at,
                      source,
                      beam,
                      config)
VALUES (?, CURRENT_TIMESTAMP, ?, ?, ?)`

	updateSessionSQL = `
UPDATE sessions
SET polarizations      = ?,
    time_leftover      = ?,
    frequency_leftover = ?
WHERE id = ?`

	selectSessionSQL = `
SELECT 
    id, 
    run_id,
    created_at, 
    source, 
    beam, 
    polarizations,
    time_leftover,
    frequency_leftover,
    config 
FROM sessions 
WHERE 
    id = ?`

	selectSessionsSQL = `
SELECT 
    id, 
    run_id,
    created_at, 
    source, 
    beam, 
    polarizations,
    time_leftover,
    frequency_leftover,
    config 
FROM sessions
ORDER BY created_at, id`

	insertSampleSQL = `
    INSERT INTO samples (
        session_id,
        timestamp,
        frequency,
        polarization,
        value
    )
    VALUES `

	selectFilterValuesSQL = `
SELECT 
    MIN(frequency), 
    MAX(frequency), 
    MIN(timestamp), 
    MAX(timestamp) 
FROM samples 
WHERE 
    session_id = ?`

	selectSamplesSQL = `
SELECT 
    timestamp, 
    polarization, 
    frequency, 
    value 
FROM samples 
WHERE 
    session_id = ? 
    AND timestamp BETWEEN ? AND ? 
    AND frequency BETWEEN ? AND ? 
    AND (? = '' OR polarization = ?)
ORDER BY timestamp, polarization, frequency`
)
