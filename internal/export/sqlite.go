package export

import (
	"context"
	"fmt"

	"github.com/roman-kulish/spectra-cube/internal/spectrum"
	"github.com/roman-kulish/spectra-cube/internal/storage"
)

// Store persists each result as a new session of a storage.Store.
type Store struct {
	store storage.Store

	lastSession int64
}

func NewStore(s storage.Store) *Store {
	return &Store{store: s}
}

// LastSession returns the ID of the session created by the latest Export.
func (s *Store) LastSession() int64 {
	return s.lastSession
}

func (s *Store) Export(ctx context.Context, meta Metadata, r *spectrum.Result) error {
	sessionID, err := s.store.CreateSession(ctx, meta.RunID, meta.Source, meta.Beam, meta.Config)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if err = s.store.StoreResult(ctx, sessionID, r); err != nil {
		return fmt.Errorf("storing result: %w", err)
	}
	s.lastSession = sessionID
	return nil
}
