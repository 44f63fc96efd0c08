// Package report renders a one-shot plain-text usage summary, the non-live
// counterpart of the dashboard.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xiello/opencode-usage/internal/calendar"
	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/poller"
	"github.com/xiello/opencode-usage/internal/state"
	"github.com/xiello/opencode-usage/internal/storage"
)

// Build reads the store once, ingests everything, and returns a populated
// engine. Unreadable records are skipped, matching the live pollers.
func Build(store *storage.Store, budgets models.BudgetConfig, limits models.LimitConfig) *state.LiveState {
	st := state.New(budgets, limits)
	st.AddMessages(poller.CollectMessages(store))
	for _, ev := range poller.CollectRateLimits(store) {
		st.AddRateLimitEvent(ev)
	}
	return st
}

// Render formats the report text for the given engine snapshot.
func Render(st *state.LiveState, now time.Time) string {
	var b strings.Builder

	mtd := st.MonthToDate(now)
	all := st.AllTime()

	fmt.Fprintf(&b, "opencode usage — %s\n\n", calendar.MonthLabel(now))

	fmt.Fprintf(&b, "Month to date: %s tokens, $%.2f, %d messages, %d sessions\n",
		formatTokens(mtd.TotalTokens), mtd.TotalCost, mtd.MessageCount, mtd.SessionCount)
	fmt.Fprintf(&b, "All time:      %s tokens, $%.2f, %d messages, %d sessions\n\n",
		formatTokens(all.TotalTokens), all.TotalCost, all.MessageCount, all.SessionCount)

	providers := st.ProviderStats(now)
	if len(providers) > 0 {
		b.WriteString("Providers:\n")
		fmt.Fprintf(&b, "  %-14s %12s %10s %10s %s\n", "PROVIDER", "TOKENS", "COST", "HEALTH", "BUDGET")
		for _, ps := range providers {
			fmt.Fprintf(&b, "  %-14s %12s %10.2f %10s %s\n",
				ps.ProviderID,
				formatTokens(ps.Stats.TotalTokens),
				ps.Stats.TotalCost,
				ps.Health,
				formatBudget(ps))
		}
		b.WriteString("\n")
	}

	modelStats := st.ModelStats(now)
	if len(modelStats) > 0 {
		b.WriteString("Models:\n")
		fmt.Fprintf(&b, "  %-28s %-12s %12s %8s %8s\n", "MODEL", "PROVIDER", "TOKENS", "SHARE", "STATUS")
		for _, ms := range modelStats {
			fmt.Fprintf(&b, "  %-28s %-12s %12s %7.1f%% %8s\n",
				ms.ModelID, ms.ProviderID,
				formatTokens(ms.Stats.TotalTokens),
				ms.SharePercent, ms.Health)
		}
		b.WriteString("\n")
	}

	if alerts := st.RecentRateLimits(5); len(alerts) > 0 {
		b.WriteString("Recent rate limits:\n")
		for _, ev := range alerts {
			fmt.Fprintf(&b, "  %s  %-12s %s\n",
				ev.Timestamp.Format("2006-01-02 15:04"), ev.Provider(), ev.ErrorMessage)
		}
	}

	return b.String()
}

func formatBudget(ps models.ProviderStats) string {
	var parts []string
	if ps.HasCostBudget {
		parts = append(parts, fmt.Sprintf("%.0f%% cost", ps.BudgetCostPercent))
	}
	if ps.HasTokensBudget {
		parts = append(parts, fmt.Sprintf("%.0f%% tokens", ps.BudgetTokensPercent))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// formatTokens renders a token count with thousand separators.
func formatTokens(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
