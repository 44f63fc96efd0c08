// Package models defines data structures and domain types.
package models

// Budget is an operator-configured monthly ceiling for one provider.
// A zero value for a dimension means that dimension is not configured.
// Budgets only drive consumption percentages, never hard stops.
type Budget struct {
	MonthlyTokens int64   `yaml:"monthlyTokens"`
	MonthlyCost   float64 `yaml:"monthlyCost"`
}

// Limits holds optional rolling-window ceilings for one provider.
// Zero means unset, same convention as Budget.
type Limits struct {
	Tokens5h    int64   `yaml:"tokens5h"`
	TokensDaily int64   `yaml:"tokensDaily"`
	Cost5h      float64 `yaml:"cost5h"`
	CostDaily   float64 `yaml:"costDaily"`
}

// BudgetConfig maps provider ids to their configured budgets.
type BudgetConfig map[string]Budget

// LimitConfig maps provider ids to their configured rolling limits.
type LimitConfig map[string]Limits
