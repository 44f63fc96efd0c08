// Package state implements the in-memory live-aggregation engine. It owns
// the deduplicated message ledger, the rate-limit ledger, the per-minute
// time series, and the view preferences, and derives all windowed statistics
// from them.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/xiello/opencode-usage/internal/models"
)

// DefaultMaxAge is how long records are retained before pruning.
const DefaultMaxAge = 90 * 24 * time.Hour

// LiveState is the aggregate root for all ingested telemetry. It is created
// once at startup with empty ledgers and mutated only through its ingestion
// and pruning methods. Both ledgers are kept sorted ascending by time after
// every mutation, so every derivation reads an already-ordered view.
type LiveState struct {
	mu sync.RWMutex

	messages []models.UsageMessage
	index    map[string]struct{}

	rateLimits []models.RateLimitEvent
	series     []models.TimeSeriesPoint

	budgets models.BudgetConfig
	limits  models.LimitConfig

	lastUpdate time.Time

	viewMode    models.ViewMode
	sortMode    models.SortMode
	chartWindow time.Duration
}

// New creates an empty engine with the supplied budget and limit mappings.
// Nil mappings are treated as empty.
func New(budgets models.BudgetConfig, limits models.LimitConfig) *LiveState {
	if budgets == nil {
		budgets = models.BudgetConfig{}
	}
	if limits == nil {
		limits = models.LimitConfig{}
	}
	return &LiveState{
		index:       make(map[string]struct{}),
		budgets:     budgets,
		limits:      limits,
		chartWindow: time.Hour,
	}
}

// AddMessage ingests one message. It returns false and changes nothing when
// a message with the same id has already been ingested. The ledger stays
// sorted by CreatedAt; equal timestamps keep insertion order.
func (s *LiveState) AddMessage(msg models.UsageMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMessageLocked(msg)
}

// AddMessages ingests a batch of messages one by one and returns the number
// actually added after deduplication.
func (s *LiveState) AddMessages(msgs []models.UsageMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, msg := range msgs {
		if s.addMessageLocked(msg) {
			added++
		}
	}
	return added
}

func (s *LiveState) addMessageLocked(msg models.UsageMessage) bool {
	if _, dup := s.index[msg.ID]; dup {
		return false
	}
	s.index[msg.ID] = struct{}{}

	// Sorted insertion by CreatedAt. sort.Search finds the first strictly
	// later entry, which keeps equal timestamps in arrival order.
	i := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].CreatedAt.After(msg.CreatedAt)
	})
	s.messages = append(s.messages, models.UsageMessage{})
	copy(s.messages[i+1:], s.messages[i:])
	s.messages[i] = msg

	s.foldTimeSeriesLocked(msg)
	s.lastUpdate = time.Now()
	return true
}

// AddRateLimitEvent records a throttling incident, keeping the rate-limit
// ledger sorted by timestamp. Events are not deduplicated here: the poller's
// part-identity set prevents re-delivery, and duplicate delivery only
// inflates counts.
func (s *LiveState) AddRateLimitEvent(ev models.RateLimitEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.rateLimits), func(i int) bool {
		return s.rateLimits[i].Timestamp.After(ev.Timestamp)
	})
	s.rateLimits = append(s.rateLimits, models.RateLimitEvent{})
	copy(s.rateLimits[i+1:], s.rateLimits[i:])
	s.rateLimits[i] = ev

	s.lastUpdate = time.Now()
}

// foldTimeSeriesLocked merges a message's token data into its minute bucket,
// creating the bucket lazily. Messages without token data are skipped.
func (s *LiveState) foldTimeSeriesLocked(msg models.UsageMessage) {
	if msg.Tokens == nil {
		return
	}
	minute := msg.CreatedAt.Truncate(time.Minute)

	i := sort.Search(len(s.series), func(i int) bool {
		return !s.series[i].Minute.Before(minute)
	})
	if i < len(s.series) && s.series[i].Minute.Equal(minute) {
		s.series[i].Tokens += msg.Tokens.Total()
		s.series[i].Cost += msg.Cost
		return
	}
	s.series = append(s.series, models.TimeSeriesPoint{})
	copy(s.series[i+1:], s.series[i:])
	s.series[i] = models.TimeSeriesPoint{
		Minute: minute,
		Tokens: msg.Tokens.Total(),
		Cost:   msg.Cost,
	}
}

// Prune drops messages, rate-limit events, and time-series points older than
// now-maxAge and rebuilds the identity index from the retained ledger. It is
// idempotent and never reorders surviving entries.
func (s *LiveState) Prune(maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Ledgers are sorted, so the survivors are a suffix.
	i := sort.Search(len(s.messages), func(i int) bool {
		return !s.messages[i].CreatedAt.Before(cutoff)
	})
	if i > 0 {
		s.messages = append([]models.UsageMessage(nil), s.messages[i:]...)
		s.index = make(map[string]struct{}, len(s.messages))
		for _, msg := range s.messages {
			s.index[msg.ID] = struct{}{}
		}
	}

	j := sort.Search(len(s.rateLimits), func(i int) bool {
		return !s.rateLimits[i].Timestamp.Before(cutoff)
	})
	if j > 0 {
		s.rateLimits = append([]models.RateLimitEvent(nil), s.rateLimits[j:]...)
	}

	k := sort.Search(len(s.series), func(i int) bool {
		return !s.series[i].Minute.Before(cutoff)
	})
	if k > 0 {
		s.series = append([]models.TimeSeriesPoint(nil), s.series[k:]...)
	}
}

// MessageCount returns the ledger length.
func (s *LiveState) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Messages returns a copy of the full message ledger, sorted by CreatedAt.
func (s *LiveState) Messages() []models.UsageMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.UsageMessage(nil), s.messages...)
}

// RecentRateLimits returns a copy of the most recent n rate-limit events,
// newest last.
func (s *LiveState) RecentRateLimits(n int) []models.RateLimitEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.rateLimits) {
		n = len(s.rateLimits)
	}
	return append([]models.RateLimitEvent(nil), s.rateLimits[len(s.rateLimits)-n:]...)
}

// Series returns a copy of the time-series points within the trailing window
// ending at now. A zero window returns the full series.
func (s *LiveState) Series(now time.Time, window time.Duration) []models.TimeSeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if window <= 0 {
		return append([]models.TimeSeriesPoint(nil), s.series...)
	}
	cutoff := now.Add(-window)
	i := sort.Search(len(s.series), func(i int) bool {
		return !s.series[i].Minute.Before(cutoff)
	})
	return append([]models.TimeSeriesPoint(nil), s.series[i:]...)
}

// LastUpdate returns the time of the most recent ingestion.
func (s *LiveState) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Budgets returns the configured budget mapping.
func (s *LiveState) Budgets() models.BudgetConfig {
	return s.budgets
}

// Limits returns the configured limit mapping.
func (s *LiveState) Limits() models.LimitConfig {
	return s.limits
}

// ViewMode returns the active view mode.
func (s *LiveState) ViewMode() models.ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewMode
}

// SetViewMode sets the active view mode.
func (s *LiveState) SetViewMode(v models.ViewMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = v
}

// CycleViewMode advances to the next view mode and returns it.
func (s *LiveState) CycleViewMode() models.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = s.viewMode.Next()
	return s.viewMode
}

// SortMode returns the active sort mode.
func (s *LiveState) SortMode() models.SortMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortMode
}

// SetSortMode sets the active sort mode.
func (s *LiveState) SetSortMode(m models.SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = m
}

// CycleSortMode advances to the next sort mode and returns it.
func (s *LiveState) CycleSortMode() models.SortMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = s.sortMode.Next()
	return s.sortMode
}

// ChartWindow returns the active chart window size.
func (s *LiveState) ChartWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chartWindow
}

// SetChartWindow sets the active chart window size.
func (s *LiveState) SetChartWindow(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.chartWindow = d
	}
}
