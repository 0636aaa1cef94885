package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
)

// Store provides an interface for persisting query results. Each stored
// result belongs to a session describing where it was read from.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateSession records a new session and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - runID: Identifier of the run producing the result
	//   - source: Path of the block file the result is read from
	//   - beam: Selected beam
	//   - config: Optional query configuration. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - sessionID: Unique identifier for the created session
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, runID, source string, beam int, config any) (sessionID int64, err error)

	// Session retrieves a specific session by its ID.
	Session(ctx context.Context, id int64) (session *spectrum.Session, err error)

	// Sessions returns all sessions stored in the database, oldest first.
	Sessions(ctx context.Context) (sessions []*spectrum.Session, err error)

	// StoreResult saves every sample of a result and the result metadata in a
	// single atomic transaction. Invalid samples are stored as NULL.
	StoreResult(ctx context.Context, sessionID int64, result *spectrum.Result) error

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
