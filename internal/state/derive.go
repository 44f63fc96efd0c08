package state

import (
	"sort"
	"time"

	"github.com/xiello/opencode-usage/internal/calendar"
	"github.com/xiello/opencode-usage/internal/models"
)

const (
	// RateLimitWindow is the trailing window for provider health.
	RateLimitWindow = 5 * time.Minute
	// StaleAfter is how long without traffic before a model counts as stale.
	StaleAfter = 30 * time.Minute
	// ThrottledThreshold is the event count that flips a provider to throttled.
	ThrottledThreshold = 3
)

// ComputeWindowStats folds a subset of messages into aggregate sums. Messages
// without token data count toward MessageCount but no numeric sum; absent
// cost contributes zero.
func ComputeWindowStats(msgs []models.UsageMessage) models.WindowStats {
	var stats models.WindowStats
	sessions := make(map[string]struct{})

	for _, msg := range msgs {
		stats.MessageCount++
		if msg.SessionID != "" {
			sessions[msg.SessionID] = struct{}{}
		}
		if msg.Tokens == nil {
			continue
		}
		stats.TotalInput += msg.Tokens.Input
		stats.TotalOutput += msg.Tokens.Output
		stats.TotalReasoning += msg.Tokens.Reasoning
		stats.TotalCacheRead += msg.Tokens.Cache.Read
		stats.TotalCacheWrite += msg.Tokens.Cache.Write
		stats.TotalCost += msg.Cost
	}
	stats.TotalTokens = stats.TotalInput + stats.TotalOutput + stats.TotalReasoning
	stats.SessionCount = len(sessions)
	return stats
}

// computeHealthStatus classifies a provider. Branch order matters: the
// lastRateLimit check is a residual net for counts computed from a different
// window than the timestamp.
func computeHealthStatus(count5m int, lastRateLimit, now time.Time) models.ProviderHealth {
	switch {
	case count5m >= ThrottledThreshold:
		return models.ProviderThrottled
	case count5m >= 1:
		return models.ProviderWarn
	case !lastRateLimit.IsZero() && now.Sub(lastRateLimit) <= RateLimitWindow:
		return models.ProviderWarn
	default:
		return models.ProviderOK
	}
}

// MonthToDate returns window stats for messages since the month boundary.
func (s *LiveState) MonthToDate(now time.Time) models.WindowStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeWindowStats(s.monthToDateLocked(now))
}

// AllTime returns window stats over the full retained ledger.
func (s *LiveState) AllTime() models.WindowStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeWindowStats(s.messages)
}

// monthToDateLocked returns the ledger suffix at or after the month start.
// The ledger is sorted, so the subset is found by binary search.
func (s *LiveState) monthToDateLocked(now time.Time) []models.UsageMessage {
	start := calendar.MonthStart(now)
	i := sort.Search(len(s.messages), func(i int) bool {
		return !s.messages[i].CreatedAt.Before(start)
	})
	return s.messages[i:]
}

// viewSubsetLocked resolves the active view mode to a message subset.
func (s *LiveState) viewSubsetLocked(now time.Time) []models.UsageMessage {
	if s.viewMode == models.ViewMonthToDate {
		return s.monthToDateLocked(now)
	}
	return s.messages
}

// rateLimitsSinceLocked groups trailing-window events by provider and
// records each provider's latest event timestamp.
func (s *LiveState) rateLimitsSinceLocked(cutoff time.Time) (counts map[string]int, last map[string]time.Time) {
	counts = make(map[string]int)
	last = make(map[string]time.Time)

	i := sort.Search(len(s.rateLimits), func(i int) bool {
		return !s.rateLimits[i].Timestamp.Before(cutoff)
	})
	for _, ev := range s.rateLimits[i:] {
		p := ev.Provider()
		counts[p]++
		if ev.Timestamp.After(last[p]) {
			last[p] = ev.Timestamp
		}
	}
	return counts, last
}

// ProviderStats derives per-provider statistics for the active view subset.
// The result covers the union of providers seen in messages, providers with
// recent rate-limit events, and providers with configured budgets, so an
// unused budget allocation still shows up. Sorted by total cost, descending.
func (s *LiveState) ProviderStats(now time.Time) []models.ProviderStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subset := s.viewSubsetLocked(now)

	groups := make(map[string][]models.UsageMessage)
	var order []string
	for _, msg := range subset {
		p := msg.Provider()
		if _, seen := groups[p]; !seen {
			order = append(order, p)
		}
		groups[p] = append(groups[p], msg)
	}

	counts, last := s.rateLimitsSinceLocked(now.Add(-RateLimitWindow))

	for p := range counts {
		if _, seen := groups[p]; !seen {
			groups[p] = nil
			order = append(order, p)
		}
	}
	for p := range s.budgets {
		if _, seen := groups[p]; !seen {
			groups[p] = nil
			order = append(order, p)
		}
	}

	result := make([]models.ProviderStats, 0, len(order))
	for _, p := range order {
		ps := models.ProviderStats{
			ProviderID:    p,
			Stats:         ComputeWindowStats(groups[p]),
			Health:        computeHealthStatus(counts[p], last[p], now),
			RateLimits5m:  counts[p],
			LastRateLimit: last[p],
		}
		s.applyBudgetLocked(&ps)
		s.applyLimitsLocked(&ps, now)
		result = append(result, ps)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Stats.TotalCost != result[j].Stats.TotalCost {
			return result[i].Stats.TotalCost > result[j].Stats.TotalCost
		}
		return result[i].ProviderID < result[j].ProviderID
	})
	return result
}

// applyBudgetLocked fills in monthly budget consumption for configured
// dimensions. Both dimensions may be present independently.
func (s *LiveState) applyBudgetLocked(ps *models.ProviderStats) {
	budget, ok := s.budgets[ps.ProviderID]
	if !ok {
		return
	}
	if budget.MonthlyTokens > 0 {
		ps.HasTokensBudget = true
		ps.BudgetTokensPercent = float64(ps.Stats.TotalTokens) / float64(budget.MonthlyTokens) * 100
	}
	if budget.MonthlyCost > 0 {
		ps.HasCostBudget = true
		ps.BudgetCostPercent = ps.Stats.TotalCost / budget.MonthlyCost * 100
	}
}

// applyLimitsLocked fills in rolling-limit consumption. Rolling windows are
// computed over the full ledger, independent of the active view mode.
func (s *LiveState) applyLimitsLocked(ps *models.ProviderStats, now time.Time) {
	limits, ok := s.limits[ps.ProviderID]
	if !ok {
		return
	}

	window := func(d time.Duration) models.WindowStats {
		cutoff := now.Add(-d)
		i := sort.Search(len(s.messages), func(i int) bool {
			return !s.messages[i].CreatedAt.Before(cutoff)
		})
		var within []models.UsageMessage
		for _, msg := range s.messages[i:] {
			if msg.Provider() == ps.ProviderID {
				within = append(within, msg)
			}
		}
		return ComputeWindowStats(within)
	}

	var fiveHour, daily models.WindowStats
	if limits.Tokens5h > 0 || limits.Cost5h > 0 {
		fiveHour = window(5 * time.Hour)
	}
	if limits.TokensDaily > 0 || limits.CostDaily > 0 {
		daily = window(24 * time.Hour)
	}

	add := func(win, dim string, used, ceiling float64) {
		if ceiling <= 0 {
			return
		}
		ps.Limits = append(ps.Limits, models.LimitUsage{
			Window:    win,
			Dimension: dim,
			Used:      used,
			Ceiling:   ceiling,
			Percent:   used / ceiling * 100,
		})
	}
	add("5h", "tokens", float64(fiveHour.TotalTokens), float64(limits.Tokens5h))
	add("5h", "cost", fiveHour.TotalCost, limits.Cost5h)
	add("day", "tokens", float64(daily.TotalTokens), float64(limits.TokensDaily))
	add("day", "cost", daily.TotalCost, limits.CostDaily)
}

// ModelStats derives per-model statistics for the active view subset.
// A model inherits its provider from its first message in ledger order;
// models are not expected to span providers. Sorted by the active sort mode.
func (s *LiveState) ModelStats(now time.Time) []models.ModelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subset := s.viewSubsetLocked(now)

	counts, _ := s.rateLimitsSinceLocked(now.Add(-RateLimitWindow))
	throttled := make(map[string]struct{})
	for p, n := range counts {
		if n >= ThrottledThreshold {
			throttled[p] = struct{}{}
		}
	}

	groups := make(map[string][]models.UsageMessage)
	var order []string
	for _, msg := range subset {
		id := msg.Model()
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], msg)
	}

	subsetTotal := ComputeWindowStats(subset).TotalTokens

	result := make([]models.ModelStats, 0, len(order))
	for _, id := range order {
		msgs := groups[id]
		stats := ComputeWindowStats(msgs)

		provider := msgs[0].Provider()
		lastSeen := msgs[0].CreatedAt
		for _, msg := range msgs[1:] {
			if msg.CreatedAt.After(lastSeen) {
				lastSeen = msg.CreatedAt
			}
		}

		// Throttled provider takes precedence over staleness.
		health := models.ModelActive
		if _, hot := throttled[provider]; hot {
			health = models.ModelError
		} else if now.Sub(lastSeen) > StaleAfter {
			health = models.ModelStale
		}

		share := 0.0
		if subsetTotal > 0 {
			share = float64(stats.TotalTokens) / float64(subsetTotal) * 100
		}

		result = append(result, models.ModelStats{
			ModelID:      id,
			ProviderID:   provider,
			Stats:        stats,
			Health:       health,
			LastSeen:     lastSeen,
			SharePercent: share,
		})
	}

	s.sortModelStatsLocked(result)
	return result
}

func (s *LiveState) sortModelStatsLocked(stats []models.ModelStats) {
	switch s.sortMode {
	case models.SortByTokens:
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].Stats.TotalTokens > stats[j].Stats.TotalTokens
		})
	case models.SortByName:
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].ModelID < stats[j].ModelID
		})
	default:
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].Stats.TotalCost > stats[j].Stats.TotalCost
		})
	}
}
