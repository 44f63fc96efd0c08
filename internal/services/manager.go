// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/xiello/opencode-usage/internal/config"
	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/poller"
	"github.com/xiello/opencode-usage/internal/state"
	"github.com/xiello/opencode-usage/internal/storage"
)

type (
	// UsageUpdatedEvent is emitted when new messages were ingested.
	UsageUpdatedEvent struct {
		Added int
	}

	// RateLimitHitEvent is emitted when new rate-limit incidents arrived.
	RateLimitHitEvent struct {
		Events []models.RateLimitEvent
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()  {}
func (RateLimitHitEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()         {}

// Manager wires the store pollers to the live-aggregation engine and routes
// change events to subscribers. All ingestion happens on its routing
// goroutine, so poller batches never interleave their effects on the engine.
type Manager struct {
	mu          sync.RWMutex
	state       *state.LiveState
	store       *storage.Store
	messages    *poller.Service
	rateLimits  *poller.Service
	pruneMaxAge time.Duration

	subscribers []chan<- ServiceEvent
	stopChan    chan struct{}
	stopOnce    sync.Once

	throttled map[string]bool
}

// NewManager creates the engine, loads budgets, and starts both pollers.
func NewManager(cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	budgets, limits := config.LoadBudgets(cfg.BudgetsPath)
	store := storage.New(cfg.StoragePath)

	pollerCfg := poller.Config{
		Interval:    cfg.PollInterval,
		SettleDelay: cfg.SettleDelay,
	}

	m := &Manager{
		state:       state.New(budgets, limits),
		store:       store,
		messages:    poller.New(store, poller.KindMessages, pollerCfg),
		rateLimits:  poller.New(store, poller.KindRateLimits, pollerCfg),
		pruneMaxAge: cfg.PruneMaxAge,
		stopChan:    make(chan struct{}),
		throttled:   make(map[string]bool),
	}

	go m.routeEvents()

	return m, nil
}

// routeEvents ingests poller batches into the engine and notifies subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.messages.Events():
			if event.Err != nil {
				m.broadcast(ErrorEvent{Service: "messages", Error: event.Err})
				continue
			}
			if added := m.state.AddMessages(event.Messages); added > 0 {
				m.broadcast(UsageUpdatedEvent{Added: added})
			}

		case event := <-m.rateLimits.Events():
			if event.Err != nil {
				m.broadcast(ErrorEvent{Service: "ratelimits", Error: event.Err})
				continue
			}
			for _, ev := range event.RateLimits {
				m.state.AddRateLimitEvent(ev)
			}
			if len(event.RateLimits) > 0 {
				m.checkThrottleTransitions()
				m.broadcast(RateLimitHitEvent{Events: event.RateLimits})
			}

		case <-m.stopChan:
			return
		}
	}
}

// checkThrottleTransitions raises a desktop notification the moment a
// provider crosses into throttled, once per transition.
func (m *Manager) checkThrottleTransitions() {
	now := time.Now()
	current := make(map[string]bool)
	for _, ps := range m.state.ProviderStats(now) {
		hot := ps.Health == models.ProviderThrottled
		current[ps.ProviderID] = hot
		if hot && !m.throttled[ps.ProviderID] {
			title := fmt.Sprintf("Provider throttled: %s", ps.ProviderID)
			body := fmt.Sprintf("%d rate-limit hits in the last 5 minutes", ps.RateLimits5m)
			_ = beeep.Notify(title, body, "")
		}
	}
	m.mu.Lock()
	m.throttled = current
	m.mu.Unlock()
}

// broadcast sends an event to all subscribers without blocking.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd that waits for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// State returns the live-aggregation engine for derivations and preference
// toggles. The engine's own lock makes direct access safe.
func (m *Manager) State() *state.LiveState {
	return m.state
}

// Store returns the underlying record store.
func (m *Manager) Store() *storage.Store {
	return m.store
}

// Prune expires records past the retention window. Called from the TUI's
// periodic tick so time-based classifications decay without new events.
func (m *Manager) Prune() {
	m.state.Prune(m.pruneMaxAge)
}

// Close stops the pollers and the routing loop.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})

	m.messages.Close()
	m.rateLimits.Close()

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	return nil
}
