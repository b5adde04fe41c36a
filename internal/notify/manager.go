package notify

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// Stopper cancels a scheduled dismissal.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Listener receives the active notifications, newest first, after every change.
type Listener func(active []Notification)

// Manager holds the active notification set.
type Manager struct {
	mu        sync.Mutex
	active    map[string]Notification
	timers    map[string]Stopper
	listeners map[uint64]Listener
	nextID    uint64
	afterFunc AfterFunc
	now       func() time.Time
	onShow    func(Notification)
}

// ManagerConfig configures a Manager. Zero values use real timers.
type ManagerConfig struct {
	AfterFunc AfterFunc
	Now       func() time.Time
	OnShow    func(Notification)
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = realAfterFunc
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		active:    make(map[string]Notification),
		timers:    make(map[string]Stopper),
		listeners: make(map[uint64]Listener),
		afterFunc: cfg.AfterFunc,
		now:       cfg.Now,
		onShow:    cfg.OnShow,
	}
}

// Notify builds a notification from info and shows it.
func (m *Manager) Notify(info failure.Info, h Handlers) Notification {
	return m.Show(Build(info, h))
}

// Success shows a short lived confirmation.
func (m *Manager) Success(message string) Notification {
	return m.Show(Notification{
		ID:          uuid.NewString(),
		Level:       LevelSuccess,
		Title:       "Success",
		Message:     message,
		Severity:    failure.SeverityLow,
		Category:    failure.CategoryClient,
		Actions:     []Action{{Label: "Dismiss", Kind: ActionDismiss}},
		AutoDismiss: 3 * time.Second,
	})
}

// Warning shows a warning with optional extra actions.
func (m *Manager) Warning(message string, actions ...Action) Notification {
	return m.Show(Notification{
		ID:          uuid.NewString(),
		Level:       LevelWarning,
		Title:       "Warning",
		Message:     message,
		Severity:    failure.SeverityMedium,
		Category:    failure.CategoryClient,
		Actions:     append(slices.Clone(actions), Action{Label: "Dismiss", Kind: ActionDismiss}),
		AutoDismiss: 5 * time.Second,
	})
}

// Show adds n to the active set and schedules its dismissal unless it is persistent.
func (m *Manager) Show(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = m.now()
	id := n.ID
	for i := range n.Actions {
		if n.Actions[i].Kind == ActionDismiss && n.Actions[i].Handler == nil {
			n.Actions[i].Handler = func() { m.Dismiss(id) }
		}
	}

	m.mu.Lock()
	m.active[id] = n
	if !n.Persistent && n.AutoDismiss > 0 {
		m.timers[id] = m.afterFunc(n.AutoDismiss, func() { m.Dismiss(id) })
	}
	m.mu.Unlock()

	if m.onShow != nil {
		m.onShow(n)
	}
	m.broadcast()
	return n
}

// Dismiss removes a notification. Dismissing twice, or after the timer
// already fired, is a no-op.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	if _, ok := m.active[id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, id)
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()
	m.broadcast()
}

// DismissAll clears the active set.
func (m *Manager) DismissAll() {
	m.mu.Lock()
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.active = make(map[string]Notification)
	m.mu.Unlock()
	m.broadcast()
}

// Active returns the shown notifications, newest first.
func (m *Manager) Active() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers l and returns a function that removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) snapshotLocked() []Notification {
	out := make([]Notification, 0, len(m.active))
	for _, n := range m.active {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Manager) broadcast() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
