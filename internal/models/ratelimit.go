// Package models defines data structures and domain types.
package models

import "time"

// MaxRateLimitMessageLen bounds the stored error message for display.
const MaxRateLimitMessageLen = 140

// RateLimitEvent is a detected throttling or quota incident.
// PartID identifies the source record; the poller uses it to avoid
// re-delivering the same part, the engine itself does not dedup events.
type RateLimitEvent struct {
	Timestamp    time.Time
	ProviderID   string
	ErrorMessage string
	PartID       string
}

// Provider returns the provider grouping key, defaulting to UnknownKey.
func (e RateLimitEvent) Provider() string {
	if e.ProviderID == "" {
		return UnknownKey
	}
	return e.ProviderID
}
