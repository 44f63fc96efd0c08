// Package models defines data structures and domain types.
package models

import "time"

// UnknownKey is the grouping key used when a message carries no provider,
// model, or agent identity.
const UnknownKey = "unknown"

// CacheTokens holds prompt-cache token counts for a single message.
type CacheTokens struct {
	Read  int64
	Write int64
}

// TokenUsage holds the token counts reported for a single message.
type TokenUsage struct {
	Input     int64
	Output    int64
	Reasoning int64
	Cache     CacheTokens
}

// Total returns input+output+reasoning. Cache tokens are tracked separately
// and never count toward the total.
func (t TokenUsage) Total() int64 {
	return t.Input + t.Output + t.Reasoning
}

// UsageMessage is one ingested unit of work from the agent's record store.
// Tokens is nil for messages that carry no token data; such messages count
// toward ledger membership but contribute to no numeric aggregate.
type UsageMessage struct {
	ID         string
	SessionID  string
	Agent      string
	ModelID    string
	ProviderID string
	CreatedAt  time.Time
	Tokens     *TokenUsage
	Cost       float64
}

// Provider returns the provider grouping key, defaulting to UnknownKey.
func (m UsageMessage) Provider() string {
	if m.ProviderID == "" {
		return UnknownKey
	}
	return m.ProviderID
}

// Model returns the model grouping key, defaulting to UnknownKey.
func (m UsageMessage) Model() string {
	if m.ModelID == "" {
		return UnknownKey
	}
	return m.ModelID
}

// WindowStats is the result of folding a subset of messages.
// Token and cost sums cover only messages carrying token data;
// MessageCount counts every message in the subset.
type WindowStats struct {
	TotalTokens     int64
	TotalInput      int64
	TotalOutput     int64
	TotalReasoning  int64
	TotalCacheRead  int64
	TotalCacheWrite int64
	TotalCost       float64
	MessageCount    int
	SessionCount    int
}

// TimeSeriesPoint is a one-minute aggregate bucket of token and cost sums.
// Exactly one point exists per distinct minute that received token data.
type TimeSeriesPoint struct {
	Minute time.Time
	Tokens int64
	Cost   float64
}
