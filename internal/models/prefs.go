// Package models defines data structures and domain types.
package models

// ViewMode selects the message subset the dashboard derives from.
type ViewMode int

const (
	// ViewMonthToDate shows messages since the start of the current month.
	ViewMonthToDate ViewMode = iota
	// ViewAllTime shows the full retained ledger.
	ViewAllTime
)

// String returns the display name for a view mode.
func (v ViewMode) String() string {
	switch v {
	case ViewMonthToDate:
		return "Month to date"
	case ViewAllTime:
		return "All time"
	default:
		return "Unknown"
	}
}

// Next cycles to the next view mode.
func (v ViewMode) Next() ViewMode {
	return (v + 1) % 2
}

// SortMode selects the ordering of the model statistics table.
type SortMode int

const (
	// SortByCost orders models by total cost, descending.
	SortByCost SortMode = iota
	// SortByTokens orders models by total tokens, descending.
	SortByTokens
	// SortByName orders models by model id, ascending.
	SortByName
)

// String returns the display name for a sort mode.
func (s SortMode) String() string {
	switch s {
	case SortByCost:
		return "cost"
	case SortByTokens:
		return "tokens"
	case SortByName:
		return "name"
	default:
		return "unknown"
	}
}

// Next cycles to the next sort mode.
func (s SortMode) Next() SortMode {
	return (s + 1) % 3
}
