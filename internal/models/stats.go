// Package models defines data structures and domain types.
package models

import "time"

// ProviderHealth classifies a provider by recent rate-limit incidence.
type ProviderHealth int

const (
	// ProviderOK means no rate-limit activity in the trailing window.
	ProviderOK ProviderHealth = iota
	// ProviderWarn means at least one recent rate-limit event.
	ProviderWarn
	// ProviderThrottled means three or more events in the trailing window.
	ProviderThrottled
)

// String returns the display name for a provider health status.
func (h ProviderHealth) String() string {
	switch h {
	case ProviderOK:
		return "ok"
	case ProviderWarn:
		return "warn"
	case ProviderThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// ModelHealth classifies a model by recency and its provider's health.
type ModelHealth int

const (
	// ModelActive means the model has been seen recently.
	ModelActive ModelHealth = iota
	// ModelStale means the model has not been seen for over 30 minutes.
	ModelStale
	// ModelError means the model's provider is currently throttled.
	ModelError
)

// String returns the display name for a model health status.
func (h ModelHealth) String() string {
	switch h {
	case ModelActive:
		return "active"
	case ModelStale:
		return "stale"
	case ModelError:
		return "error"
	default:
		return "unknown"
	}
}

// LimitUsage reports consumption against one configured rolling limit.
type LimitUsage struct {
	Window    string // "5h" or "day"
	Dimension string // "tokens" or "cost"
	Used      float64
	Ceiling   float64
	Percent   float64
}

// ProviderStats is the derived per-provider view for a message subset.
type ProviderStats struct {
	ProviderID    string
	Stats         WindowStats
	Health        ProviderHealth
	RateLimits5m  int
	LastRateLimit time.Time

	// Budget consumption, present only for configured dimensions.
	BudgetTokensPercent float64
	HasTokensBudget     bool
	BudgetCostPercent   float64
	HasCostBudget       bool

	// Rolling-limit consumption for configured limits.
	Limits []LimitUsage
}

// ModelStats is the derived per-model view for a message subset.
type ModelStats struct {
	ModelID      string
	ProviderID   string
	Stats        WindowStats
	Health       ModelHealth
	LastSeen     time.Time
	SharePercent float64
}
