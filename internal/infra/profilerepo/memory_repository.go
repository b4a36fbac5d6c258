package profilerepo

import (
	"context"
	"sync"

	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

// MemoryRepository keeps learned preferences in process memory for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	prefs map[string][]trip.LearnedPreference
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{prefs: make(map[string][]trip.LearnedPreference)}
}

// LoadPreferences implements chatbuilder.ProfileRepository.
func (r *MemoryRepository) LoadPreferences(_ context.Context, userID string) ([]trip.LearnedPreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.prefs[userID]
	out := make([]trip.LearnedPreference, len(stored))
	copy(out, stored)
	return out, nil
}

// SavePreferences implements chatbuilder.ProfileRepository.
func (r *MemoryRepository) SavePreferences(_ context.Context, userID string, prefs []trip.LearnedPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]trip.LearnedPreference, len(prefs))
	copy(stored, prefs)
	r.prefs[userID] = stored
	return nil
}

var _ chatbuilder.ProfileRepository = (*MemoryRepository)(nil)
