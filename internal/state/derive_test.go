package state

import (
	"testing"
	"time"

	"github.com/xiello/opencode-usage/internal/calendar"
	"github.com/xiello/opencode-usage/internal/models"
)

func TestComputeWindowStats_SumInvariant(t *testing.T) {
	now := time.Now()
	msgs := []models.UsageMessage{
		{ID: "a", SessionID: "s1", CreatedAt: now, Cost: 0.5,
			Tokens: &models.TokenUsage{Input: 10, Output: 20, Reasoning: 5, Cache: models.CacheTokens{Read: 100, Write: 50}}},
		{ID: "b", SessionID: "s2", CreatedAt: now, Cost: 0.25,
			Tokens: &models.TokenUsage{Input: 1, Output: 2, Reasoning: 3}},
		{ID: "c", SessionID: "s1", CreatedAt: now, Cost: 99}, // no token data, cost excluded
	}

	stats := ComputeWindowStats(msgs)

	if stats.TotalTokens != stats.TotalInput+stats.TotalOutput+stats.TotalReasoning {
		t.Error("TotalTokens must equal input+output+reasoning")
	}
	if stats.TotalTokens != 41 {
		t.Errorf("Expected 41 tokens, got %d", stats.TotalTokens)
	}
	if stats.TotalCost != 0.75 {
		t.Errorf("Expected cost 0.75 (no-token message excluded), got %f", stats.TotalCost)
	}
	if stats.MessageCount != 3 {
		t.Errorf("Expected all 3 messages counted, got %d", stats.MessageCount)
	}
	if stats.SessionCount != 2 {
		t.Errorf("Expected 2 distinct sessions, got %d", stats.SessionCount)
	}
	if stats.TotalCacheRead != 100 || stats.TotalCacheWrite != 50 {
		t.Errorf("Expected cache sums 100/50, got %d/%d", stats.TotalCacheRead, stats.TotalCacheWrite)
	}
}

func TestMonthToDate_BoundaryInclusive(t *testing.T) {
	now := time.Now()
	start := calendar.MonthStart(now)
	s := New(nil, nil)

	s.AddMessage(models.UsageMessage{ID: "at", CreatedAt: start,
		Tokens: &models.TokenUsage{Input: 1}})
	s.AddMessage(models.UsageMessage{ID: "before", CreatedAt: start.Add(-time.Millisecond),
		Tokens: &models.TokenUsage{Input: 1}})

	mtd := s.MonthToDate(now)
	if mtd.MessageCount != 1 {
		t.Errorf("Expected exactly the boundary message in MTD, got %d", mtd.MessageCount)
	}
	if s.AllTime().MessageCount != 2 {
		t.Error("Expected both messages in all-time")
	}
}

func TestEndToEnd_MonthToDateVsAllTime(t *testing.T) {
	now := time.Now()
	start := calendar.MonthStart(now)
	s := New(nil, nil)

	s.AddMessage(models.UsageMessage{
		ID: "a", ProviderID: "openai", CreatedAt: start.Add(time.Second), Cost: 0.01,
		Tokens: &models.TokenUsage{Input: 10, Output: 20},
	})
	s.AddMessage(models.UsageMessage{
		ID: "b", ProviderID: "openai", CreatedAt: start.Add(-time.Second), Cost: 0.01,
		Tokens: &models.TokenUsage{Input: 5, Output: 5},
	})

	mtd := s.MonthToDate(now)
	if mtd.TotalTokens != 30 || mtd.MessageCount != 1 {
		t.Errorf("MTD: expected 30 tokens / 1 message, got %d / %d", mtd.TotalTokens, mtd.MessageCount)
	}

	all := s.AllTime()
	if all.TotalTokens != 40 || all.MessageCount != 2 {
		t.Errorf("All-time: expected 40 tokens / 2 messages, got %d / %d", all.TotalTokens, all.MessageCount)
	}
}

func TestProviderStats_HealthClassification(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "p", ProviderID: "anthropic", CreatedAt: now.Add(-time.Minute),
		Tokens: &models.TokenUsage{Input: 1}})
	s.AddMessage(models.UsageMessage{ID: "q", ProviderID: "openai", CreatedAt: now.Add(-time.Minute),
		Tokens: &models.TokenUsage{Input: 1}})

	for i := 0; i < 3; i++ {
		s.AddRateLimitEvent(models.RateLimitEvent{
			Timestamp:  now.Add(-time.Duration(i) * time.Minute),
			ProviderID: "anthropic",
		})
	}

	stats := s.ProviderStats(now)
	byID := make(map[string]models.ProviderStats)
	for _, ps := range stats {
		byID[ps.ProviderID] = ps
	}

	if byID["anthropic"].Health != models.ProviderThrottled {
		t.Errorf("Expected anthropic throttled, got %v", byID["anthropic"].Health)
	}
	if byID["anthropic"].RateLimits5m != 3 {
		t.Errorf("Expected 3 events in window, got %d", byID["anthropic"].RateLimits5m)
	}
	if byID["openai"].Health != models.ProviderOK {
		t.Errorf("Expected openai ok, got %v", byID["openai"].Health)
	}
}

func TestProviderStats_WarnOnSingleEvent(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddRateLimitEvent(models.RateLimitEvent{Timestamp: now.Add(-time.Minute), ProviderID: "google"})

	stats := s.ProviderStats(now)
	if len(stats) != 1 || stats[0].ProviderID != "google" {
		t.Fatalf("Expected a google entry from rate limits alone, got %+v", stats)
	}
	if stats[0].Health != models.ProviderWarn {
		t.Errorf("Expected warn, got %v", stats[0].Health)
	}

	// An event older than the window decays back to ok.
	later := now.Add(10 * time.Minute)
	stats = s.ProviderStats(later)
	if len(stats) != 0 {
		t.Errorf("Expected no entries once the window decays, got %+v", stats)
	}
}

func TestProviderStats_BudgetPercent(t *testing.T) {
	now := time.Now()
	budgets := models.BudgetConfig{
		"openai": {MonthlyCost: 100, MonthlyTokens: 1000},
		"google": {MonthlyCost: 50},
	}
	s := New(budgets, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "a", ProviderID: "openai", CreatedAt: now, Cost: 25,
		Tokens: &models.TokenUsage{Input: 100}})

	stats := s.ProviderStats(now)
	byID := make(map[string]models.ProviderStats)
	for _, ps := range stats {
		byID[ps.ProviderID] = ps
	}

	oa := byID["openai"]
	if !oa.HasCostBudget || oa.BudgetCostPercent != 25 {
		t.Errorf("Expected cost budget 25%%, got %f (has=%v)", oa.BudgetCostPercent, oa.HasCostBudget)
	}
	if !oa.HasTokensBudget || oa.BudgetTokensPercent != 10 {
		t.Errorf("Expected token budget 10%%, got %f", oa.BudgetTokensPercent)
	}

	// A budgeted provider with zero traffic still appears.
	g, ok := byID["google"]
	if !ok {
		t.Fatal("Expected google entry from budget config alone")
	}
	if g.Stats.MessageCount != 0 || g.BudgetCostPercent != 0 {
		t.Errorf("Expected empty google stats, got %+v", g)
	}
}

func TestProviderStats_SortedByCostDesc(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "a", ProviderID: "cheap", CreatedAt: now, Cost: 1,
		Tokens: &models.TokenUsage{Input: 1}})
	s.AddMessage(models.UsageMessage{ID: "b", ProviderID: "pricey", CreatedAt: now, Cost: 9,
		Tokens: &models.TokenUsage{Input: 1}})

	stats := s.ProviderStats(now)
	if stats[0].ProviderID != "pricey" || stats[1].ProviderID != "cheap" {
		t.Errorf("Expected cost-descending order, got %s then %s", stats[0].ProviderID, stats[1].ProviderID)
	}
}

func TestProviderStats_LimitConsumption(t *testing.T) {
	now := time.Now()
	limits := models.LimitConfig{
		"openai": {Tokens5h: 1000, CostDaily: 10},
	}
	s := New(nil, limits)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "recent", ProviderID: "openai",
		CreatedAt: now.Add(-time.Hour), Cost: 2, Tokens: &models.TokenUsage{Input: 500}})
	s.AddMessage(models.UsageMessage{ID: "yesterday", ProviderID: "openai",
		CreatedAt: now.Add(-30 * time.Hour), Cost: 5, Tokens: &models.TokenUsage{Input: 400}})

	stats := s.ProviderStats(now)
	if len(stats) != 1 {
		t.Fatalf("Expected one provider, got %d", len(stats))
	}

	byKey := make(map[string]models.LimitUsage)
	for _, lu := range stats[0].Limits {
		byKey[lu.Window+"/"+lu.Dimension] = lu
	}
	if lu := byKey["5h/tokens"]; lu.Percent != 50 {
		t.Errorf("Expected 50%% of 5h token limit, got %f", lu.Percent)
	}
	if lu := byKey["day/cost"]; lu.Percent != 20 {
		t.Errorf("Expected 20%% of daily cost limit (old message excluded), got %f", lu.Percent)
	}
}

func TestModelStats_Staleness(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "stale", ModelID: "old-model", ProviderID: "openai",
		CreatedAt: now.Add(-31 * time.Minute), Tokens: &models.TokenUsage{Input: 1}})
	s.AddMessage(models.UsageMessage{ID: "fresh", ModelID: "new-model", ProviderID: "openai",
		CreatedAt: now.Add(-29 * time.Minute), Tokens: &models.TokenUsage{Input: 1}})

	stats := s.ModelStats(now)
	byID := make(map[string]models.ModelStats)
	for _, ms := range stats {
		byID[ms.ModelID] = ms
	}

	if byID["old-model"].Health != models.ModelStale {
		t.Errorf("Expected stale at 31m, got %v", byID["old-model"].Health)
	}
	if byID["new-model"].Health != models.ModelActive {
		t.Errorf("Expected active at 29m, got %v", byID["new-model"].Health)
	}
}

func TestModelStats_ThrottledProviderPrecedence(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	// Stale AND throttled: error wins.
	s.AddMessage(models.UsageMessage{ID: "a", ModelID: "m", ProviderID: "anthropic",
		CreatedAt: now.Add(-45 * time.Minute), Tokens: &models.TokenUsage{Input: 1}})
	for i := 0; i < 3; i++ {
		s.AddRateLimitEvent(models.RateLimitEvent{
			Timestamp: now.Add(-time.Minute), ProviderID: "anthropic"})
	}

	stats := s.ModelStats(now)
	if len(stats) != 1 || stats[0].Health != models.ModelError {
		t.Errorf("Expected error status for throttled provider, got %+v", stats)
	}
}

func TestModelStats_SharePercent(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "a", ModelID: "big", CreatedAt: now,
		Tokens: &models.TokenUsage{Input: 75}})
	s.AddMessage(models.UsageMessage{ID: "b", ModelID: "small", CreatedAt: now,
		Tokens: &models.TokenUsage{Input: 25}})

	stats := s.ModelStats(now)
	byID := make(map[string]models.ModelStats)
	for _, ms := range stats {
		byID[ms.ModelID] = ms
	}
	if byID["big"].SharePercent != 75 || byID["small"].SharePercent != 25 {
		t.Errorf("Expected 75/25 shares, got %f/%f", byID["big"].SharePercent, byID["small"].SharePercent)
	}
}

func TestModelStats_ZeroTotalShare(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	// A message with no token data: subset total is 0, share must be 0.
	s.AddMessage(models.UsageMessage{ID: "a", ModelID: "m", CreatedAt: now})

	stats := s.ModelStats(now)
	if len(stats) != 1 || stats[0].SharePercent != 0 {
		t.Errorf("Expected zero share on empty total, got %+v", stats)
	}
}

func TestModelStats_SortModes(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "a", ModelID: "zeta", CreatedAt: now, Cost: 1,
		Tokens: &models.TokenUsage{Input: 100}})
	s.AddMessage(models.UsageMessage{ID: "b", ModelID: "alpha", CreatedAt: now, Cost: 5,
		Tokens: &models.TokenUsage{Input: 10}})

	first := func() string { return s.ModelStats(now)[0].ModelID }

	if got := first(); got != "alpha" { // cost desc by default
		t.Errorf("cost sort: expected alpha first, got %s", got)
	}
	s.SetSortMode(models.SortByTokens)
	if got := first(); got != "zeta" {
		t.Errorf("token sort: expected zeta first, got %s", got)
	}
	s.SetSortMode(models.SortByName)
	if got := first(); got != "alpha" {
		t.Errorf("name sort: expected alpha first, got %s", got)
	}
}

func TestModelStats_UnknownDefaults(t *testing.T) {
	now := time.Now()
	s := New(nil, nil)
	s.SetViewMode(models.ViewAllTime)

	s.AddMessage(models.UsageMessage{ID: "a", CreatedAt: now, Tokens: &models.TokenUsage{Input: 1}})

	stats := s.ModelStats(now)
	if len(stats) != 1 || stats[0].ModelID != models.UnknownKey || stats[0].ProviderID != models.UnknownKey {
		t.Errorf("Expected unknown grouping keys, got %+v", stats)
	}
}

func TestComputeHealthStatus_BranchOrder(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		count   int
		last    time.Time
		want    models.ProviderHealth
	}{
		{"throttled at threshold", 3, now, models.ProviderThrottled},
		{"warn on one event", 1, now, models.ProviderWarn},
		{"warn on recent timestamp with zero count", 0, now.Add(-time.Minute), models.ProviderWarn},
		{"ok when event too old", 0, now.Add(-10 * time.Minute), models.ProviderOK},
		{"ok with no history", 0, time.Time{}, models.ProviderOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeHealthStatus(tt.count, tt.last, now); got != tt.want {
				t.Errorf("computeHealthStatus(%d) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}
