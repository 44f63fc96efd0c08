package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xiello/opencode-usage/internal/calendar"
	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/services"
)

const (
	// DefaultTickInterval is the interval between prune-and-refresh ticks.
	DefaultTickInterval = 2 * time.Second

	// RecentRateLimitCount is how many rate-limit events tabs display.
	RecentRateLimitCount = 10
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// takeSnapshotCmd derives every view from the aggregation engine in one pass.
func takeSnapshotCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: TakeSnapshot(mgr, time.Now())}
	}
}

// TakeSnapshot computes a consistent Snapshot of all derived views at now.
func TakeSnapshot(mgr *services.Manager, now time.Time) Snapshot {
	st := mgr.State()

	snap := Snapshot{
		ViewMode:    st.ViewMode(),
		SortMode:    st.SortMode(),
		ChartWindow: st.ChartWindow(),
		AllTime:     st.AllTime(),
		Providers:   st.ProviderStats(now),
		Models:      st.ModelStats(now),
		RateLimits:  st.RecentRateLimits(RecentRateLimitCount),
		MonthLabel:  calendar.MonthLabel(now),
		LastUpdate:  st.LastUpdate(),
		TakenAt:     now,
	}

	if snap.ViewMode == models.ViewMonthToDate {
		snap.Window = st.MonthToDate(now)
	} else {
		snap.Window = snap.AllTime
	}

	snap.Series = st.Series(now, snap.ChartWindow)

	return snap
}

// subscribeCmd registers a subscriber with the service manager and hands the
// channel back to the model.
func subscribeCmd(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		ch, _ := mgr.Subscribe()
		return SubscribedMsg{Channel: ch}
	}
}

// waitForEventCmd waits for the next service event on the subscription channel.
func waitForEventCmd(ch chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}
