package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Manager owns the live dashboards, loading sessions from the store on first
// use and creating new ones for unknown IDs.
type Manager struct {
	mu         sync.Mutex
	dashboards map[string]*Dashboard

	svc          Snapshotter
	store        session.Store
	defaultUnits weather.Units
	opts         Options
}

func NewManager(svc Snapshotter, store session.Store, defaultUnits weather.Units, opts Options) *Manager {
	if defaultUnits == "" {
		defaultUnits = weather.UnitsMetric
	}
	return &Manager{
		dashboards:   make(map[string]*Dashboard),
		svc:          svc,
		store:        store,
		defaultUnits: defaultUnits,
		opts:         opts.withDefaults(),
	}
}

// Get returns the dashboard for id. An empty or unknown id yields a new
// session; created reports whether that happened. Store I/O runs without the
// manager lock held.
func (m *Manager) Get(ctx context.Context, id string) (d *Dashboard, created bool, err error) {
	if id != "" {
		if d := m.lookup(id); d != nil {
			d.touch()
			return d, false, nil
		}

		sess, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			return m.insert(newDashboard(m.svc, m.store, sess, m.opts)), false, nil
		case !errors.Is(err, session.ErrNotFound):
			return nil, false, fmt.Errorf("loading session %s: %w", id, err)
		}
	}

	sess := session.New(m.defaultUnits)
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, false, fmt.Errorf("saving new session: %w", err)
	}
	return m.insert(newDashboard(m.svc, m.store, sess, m.opts)), true, nil
}

func (m *Manager) lookup(id string) *Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dashboards[id]
}

// insert registers d unless a concurrent Get already loaded the same session,
// in which case the existing dashboard wins.
func (m *Manager) insert(d *Dashboard) *Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := d.sess.ID
	if existing, ok := m.dashboards[id]; ok {
		return existing
	}
	m.dashboards[id] = d
	return d
}

// Active returns the dashboards currently held in memory.
func (m *Manager) Active() []*Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Dashboard, 0, len(m.dashboards))
	for _, d := range m.dashboards {
		out = append(out, d)
	}
	return out
}

// Evict drops in-memory dashboards not accessed since cutoff. Their sessions
// remain in the store and are reloaded on next access.
func (m *Manager) Evict(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, d := range m.dashboards {
		if d.idleSince(cutoff) {
			delete(m.dashboards, id)
			n++
		}
	}
	return n
}
