package app

import (
	"time"

	"github.com/xiello/opencode-usage/internal/services"
)

// TickMsg is sent periodically to trigger pruning and a snapshot refresh.
type TickMsg struct {
	Time time.Time
}

// SnapshotMsg carries a freshly derived snapshot of all views.
type SnapshotMsg struct {
	Snapshot Snapshot
}

// ServiceEventMsg wraps an event received from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscribedMsg carries the subscription channel after Init.
type SubscribedMsg struct {
	Channel chan services.ServiceEvent
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ErrorMsg carries an error for display.
type ErrorMsg struct {
	Error error
}
