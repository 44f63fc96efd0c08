// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"sync"
	"time"

	"github.com/xiello/opencode-usage/internal/models"
)

// Snapshot is one consistent set of derived views, computed from the
// aggregation engine in a single pass so every tab renders the same instant.
type Snapshot struct {
	ViewMode    models.ViewMode
	SortMode    models.SortMode
	ChartWindow time.Duration

	Window     models.WindowStats
	AllTime    models.WindowStats
	Providers  []models.ProviderStats
	Models     []models.ModelStats
	Series     []models.TimeSeriesPoint
	RateLimits []models.RateLimitEvent

	MonthLabel string
	LastUpdate time.Time
	TakenAt    time.Time
}

// State is the shared application state read by all tabs.
type State struct {
	mu sync.RWMutex

	snapshot Snapshot
	loaded   bool
}

// NewState creates an empty application state.
func NewState() *State {
	return &State{}
}

// SetSnapshot replaces the current derived snapshot.
func (s *State) SetSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.loaded = true
}

// GetSnapshot returns the most recent derived snapshot.
func (s *State) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// IsLoaded reports whether at least one snapshot has been taken.
func (s *State) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
