package state

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/xiello/opencode-usage/internal/models"
)

func msgAt(id string, at time.Time, tokens *models.TokenUsage) models.UsageMessage {
	return models.UsageMessage{
		ID:         id,
		SessionID:  "ses_" + id,
		ProviderID: "anthropic",
		ModelID:    "claude-sonnet",
		CreatedAt:  at,
		Tokens:     tokens,
	}
}

func TestAddMessage_Idempotent(t *testing.T) {
	s := New(nil, nil)
	msg := msgAt("a", time.Now(), &models.TokenUsage{Input: 10})

	if !s.AddMessage(msg) {
		t.Fatal("first AddMessage should report added")
	}
	if s.AddMessage(msg) {
		t.Error("duplicate AddMessage should report not added")
	}
	if got := s.MessageCount(); got != 1 {
		t.Errorf("Expected ledger length 1, got %d", got)
	}
}

func TestAddMessages_CountsOnlyNew(t *testing.T) {
	s := New(nil, nil)
	now := time.Now()

	batch := []models.UsageMessage{
		msgAt("a", now, nil),
		msgAt("b", now, nil),
		msgAt("a", now, nil), // duplicate within batch
	}
	if got := s.AddMessages(batch); got != 2 {
		t.Errorf("Expected 2 added, got %d", got)
	}
	if got := s.AddMessages(batch); got != 0 {
		t.Errorf("Expected 0 added on replay, got %d", got)
	}
}

func TestLedger_SortedAfterArbitraryInserts(t *testing.T) {
	s := New(nil, nil)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		at := base.Add(time.Duration(r.Intn(100000)) * time.Second)
		s.AddMessage(msgAt(fmt.Sprintf("m%d", i), at, nil))
	}

	msgs := s.Messages()
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("ledger unsorted at %d: %v before %v", i, msgs[i].CreatedAt, msgs[i-1].CreatedAt)
		}
	}
}

func TestLedger_EqualTimestampsKeepArrivalOrder(t *testing.T) {
	s := New(nil, nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.AddMessage(msgAt("first", at, nil))
	s.AddMessage(msgAt("second", at, nil))
	s.AddMessage(msgAt("third", at, nil))

	msgs := s.Messages()
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, msgs[i].ID)
		}
	}
}

func TestTimeSeries_BucketsByMinute(t *testing.T) {
	s := New(nil, nil)
	base := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)

	s.AddMessage(msgAt("a", base, &models.TokenUsage{Input: 10, Output: 5}))
	s.AddMessage(msgAt("b", base.Add(20*time.Second), &models.TokenUsage{Input: 3}))
	s.AddMessage(msgAt("c", base.Add(90*time.Second), &models.TokenUsage{Output: 7}))
	s.AddMessage(msgAt("d", base.Add(30*time.Second), nil)) // no token data

	series := s.Series(base.Add(time.Hour), 0)
	if len(series) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(series))
	}
	if series[0].Tokens != 18 {
		t.Errorf("Expected first bucket 18 tokens, got %d", series[0].Tokens)
	}
	if series[1].Tokens != 7 {
		t.Errorf("Expected second bucket 7 tokens, got %d", series[1].Tokens)
	}
	if !series[0].Minute.Equal(base.Truncate(time.Minute)) {
		t.Errorf("Expected minute-aligned bucket, got %v", series[0].Minute)
	}
}

func TestRateLimitLedger_SortedNoDedup(t *testing.T) {
	s := New(nil, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ev := models.RateLimitEvent{Timestamp: base.Add(time.Minute), ProviderID: "openai", PartID: "p1"}
	s.AddRateLimitEvent(ev)
	s.AddRateLimitEvent(models.RateLimitEvent{Timestamp: base, ProviderID: "openai", PartID: "p0"})

	// The engine does not dedup events: a replayed part counts twice. The
	// poller's seen-set is the only guard against re-delivery.
	s.AddRateLimitEvent(ev)

	events := s.RecentRateLimits(0)
	if len(events) != 3 {
		t.Fatalf("Expected 3 events (duplicates tolerated), got %d", len(events))
	}
	if events[0].PartID != "p0" {
		t.Errorf("Expected oldest event first, got %s", events[0].PartID)
	}
}

func TestPrune_DropsOldRebuildsIndex(t *testing.T) {
	s := New(nil, nil)
	now := time.Now()

	s.AddMessage(msgAt("old", now.Add(-100*24*time.Hour), &models.TokenUsage{Input: 5}))
	s.AddMessage(msgAt("recent", now.Add(-time.Hour), &models.TokenUsage{Input: 5}))
	s.AddRateLimitEvent(models.RateLimitEvent{Timestamp: now.Add(-100 * 24 * time.Hour), ProviderID: "openai"})
	s.AddRateLimitEvent(models.RateLimitEvent{Timestamp: now.Add(-time.Hour), ProviderID: "openai"})

	s.Prune(DefaultMaxAge)

	if got := s.MessageCount(); got != 1 {
		t.Fatalf("Expected 1 surviving message, got %d", got)
	}
	if len(s.RecentRateLimits(0)) != 1 {
		t.Error("Expected 1 surviving rate-limit event")
	}
	if len(s.Series(now, 0)) != 1 {
		t.Error("Expected 1 surviving series point")
	}

	// Index rebuilt: the pruned id can be ingested again.
	if !s.AddMessage(msgAt("old", now.Add(-time.Minute), nil)) {
		t.Error("Expected pruned id to be ingestable again")
	}

	// Idempotent: pruning again changes nothing.
	before := s.MessageCount()
	s.Prune(DefaultMaxAge)
	if s.MessageCount() != before {
		t.Error("Expected second prune to be a no-op")
	}
}

func TestSeries_TrailingWindow(t *testing.T) {
	s := New(nil, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.AddMessage(msgAt("a", now.Add(-2*time.Hour), &models.TokenUsage{Input: 1}))
	s.AddMessage(msgAt("b", now.Add(-30*time.Minute), &models.TokenUsage{Input: 2}))

	within := s.Series(now, time.Hour)
	if len(within) != 1 || within[0].Tokens != 2 {
		t.Errorf("Expected only the point within the window, got %+v", within)
	}
}

func TestPreferences_Toggles(t *testing.T) {
	s := New(nil, nil)

	if s.ViewMode() != models.ViewMonthToDate {
		t.Error("Expected month-to-date default view")
	}
	if got := s.CycleViewMode(); got != models.ViewAllTime {
		t.Errorf("Expected all-time after cycle, got %v", got)
	}

	if s.SortMode() != models.SortByCost {
		t.Error("Expected cost default sort")
	}
	s.SetSortMode(models.SortByName)
	if s.SortMode() != models.SortByName {
		t.Error("Expected name sort after set")
	}

	s.SetChartWindow(15 * time.Minute)
	if s.ChartWindow() != 15*time.Minute {
		t.Error("Expected chart window update")
	}
	s.SetChartWindow(0) // ignored
	if s.ChartWindow() != 15*time.Minute {
		t.Error("Expected zero chart window to be ignored")
	}
}
