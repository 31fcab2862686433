package conversation

import (
	"context"
	"sync"
	"time"
)

// Turn is one entry in a lead's transcript.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptStore persists the per-lead conversation transcript. Load returns
// nil (not an error) for a lead with no transcript yet; the engine seeds the
// system turn.
type TranscriptStore interface {
	Load(ctx context.Context, leadID string) ([]Turn, error)
	Save(ctx context.Context, leadID string, turns []Turn) error
}

// MemoryTranscriptStore keeps transcripts in process memory, for development
// and tests.
type MemoryTranscriptStore struct {
	mu          sync.RWMutex
	transcripts map[string][]Turn
}

// NewMemoryTranscriptStore creates an empty in-memory store.
func NewMemoryTranscriptStore() *MemoryTranscriptStore {
	return &MemoryTranscriptStore{
		transcripts: make(map[string][]Turn),
	}
}

// Load returns a copy of the stored transcript.
func (s *MemoryTranscriptStore) Load(ctx context.Context, leadID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.transcripts[leadID]
	if !ok {
		return nil, nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Save replaces the stored transcript.
func (s *MemoryTranscriptStore) Save(ctx context.Context, leadID string, turns []Turn) error {
	stored := make([]Turn, len(turns))
	copy(stored, turns)

	s.mu.Lock()
	s.transcripts[leadID] = stored
	s.mu.Unlock()
	return nil
}
