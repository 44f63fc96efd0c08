package poller

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xiello/opencode-usage/internal/logger"
	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/storage"
)

// Config holds the timing knobs shared by both pollers.
type Config struct {
	// Interval between directory scans.
	Interval time.Duration
	// SettleDelay is how long a newly discovered file must sit unread
	// before the poller trusts it to be fully written.
	SettleDelay time.Duration
}

// DefaultConfig returns the default poller timings.
func DefaultConfig() Config {
	return Config{
		Interval:    2 * time.Second,
		SettleDelay: 300 * time.Millisecond,
	}
}

// Event is a batch delivered by a poller. Exactly one of the slices is
// populated depending on which poller emitted it.
type Event struct {
	Messages   []models.UsageMessage
	RateLimits []models.RateLimitEvent
	Err        error
}

// Kind selects which record type a Service watches.
type Kind int

const (
	// KindMessages watches message records.
	KindMessages Kind = iota
	// KindRateLimits watches part records for rate-limit incidents.
	KindRateLimits
)

// Service polls one record type in the store. Each service keeps its own
// seen-set keyed by file path; the settle delay defers reading a file until
// a later tick so partial writes are never parsed.
type Service struct {
	store  *storage.Store
	kind   Kind
	config Config

	mu      sync.Mutex
	seen    map[string]struct{}
	pending map[string]time.Time

	eventChan chan Event
	scanPoke  chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// New creates a poller service and starts its scan loop.
func New(store *storage.Store, kind Kind, config Config) *Service {
	if config.Interval <= 0 {
		config = DefaultConfig()
	}

	s := &Service{
		store:     store,
		kind:      kind,
		config:    config,
		seen:      make(map[string]struct{}),
		pending:   make(map[string]time.Time),
		eventChan: make(chan Event, 100),
		scanPoke:  make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()
	go s.watchFilesystem()

	return s
}

// Events returns the channel delivering parsed batches.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Close stops the scan loop. No further events are delivered; an in-flight
// read completes or is abandoned silently.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Service) run() {
	defer s.wg.Done()

	// Immediate first scan so startup does not wait a full interval.
	s.scan(time.Now())

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case t := <-ticker.C:
			s.scan(t)
		case <-s.scanPoke:
			s.scan(time.Now())
		case <-s.stopChan:
			return
		}
	}
}

// watchFilesystem wires fsnotify as a discovery accelerant. The poll tick
// remains the guaranteed path: a failed or missing watcher just means new
// records wait for the next interval.
func (s *Service) watchFilesystem() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("fsnotify unavailable, relying on poll interval", "error", err)
		return
	}
	defer watcher.Close()

	_ = watcher.Add(s.store.Root())

	for {
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			select {
			case s.scanPoke <- struct{}{}:
			default:
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		case <-s.stopChan:
			return
		}
	}
}

// scan lists the store, defers files still inside the settle window, and
// delivers everything that parsed. Unreadable or malformed records are
// logged and skipped; they never surface as engine errors.
func (s *Service) scan(now time.Time) {
	var paths []string
	if s.kind == KindMessages {
		paths = s.store.MessageFiles()
	} else {
		paths = s.store.PartFiles()
	}

	ready := s.takeReady(paths, now)
	if len(ready) == 0 {
		return
	}

	var event Event
	for _, path := range ready {
		if s.kind == KindMessages {
			msg, err := s.store.ReadMessage(path)
			if err != nil {
				logger.Debug("skipping unreadable message record", "path", path, "error", err)
				continue
			}
			event.Messages = append(event.Messages, msg)
		} else {
			part, err := s.store.ReadPart(path)
			if err != nil {
				logger.Debug("skipping unreadable part record", "path", path, "error", err)
				continue
			}
			if !IsRateLimitPart(part) {
				continue
			}
			event.RateLimits = append(event.RateLimits, PartToEvent(part))
		}
	}

	if len(event.Messages) == 0 && len(event.RateLimits) == 0 {
		return
	}
	select {
	case s.eventChan <- event:
	case <-s.stopChan:
	}
}

// takeReady marks new paths pending and returns those whose settle delay has
// elapsed, moving them into the seen set. Each file is delivered once.
func (s *Service) takeReady(paths []string, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []string
	for _, path := range paths {
		if _, done := s.seen[path]; done {
			continue
		}
		first, pending := s.pending[path]
		if !pending {
			s.pending[path] = now
			continue
		}
		if now.Sub(first) < s.config.SettleDelay {
			continue
		}
		delete(s.pending, path)
		s.seen[path] = struct{}{}
		ready = append(ready, path)
	}
	return ready
}

// CollectMessages synchronously reads every message record in the store,
// skipping unreadable files. Used by the one-shot report mode.
func CollectMessages(store *storage.Store) []models.UsageMessage {
	var msgs []models.UsageMessage
	for _, path := range store.MessageFiles() {
		msg, err := store.ReadMessage(path)
		if err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// CollectRateLimits synchronously reads every part record and returns the
// rate-limit incidents among them.
func CollectRateLimits(store *storage.Store) []models.RateLimitEvent {
	var events []models.RateLimitEvent
	for _, path := range store.PartFiles() {
		part, err := store.ReadPart(path)
		if err != nil {
			continue
		}
		if IsRateLimitPart(part) {
			events = append(events, PartToEvent(part))
		}
	}
	return events
}
