package dashboard

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// User-facing error messages.
const (
	MsgNotFound               = "Location not found. Please try another location."
	MsgFetchFailed            = "Failed to fetch weather data. Please try again."
	MsgGeolocationUnavailable = "Unable to get your location. Please allow location access or search for a city."
)

// DefaultFallbackCity is searched when no location is known and geolocation is
// unavailable.
const DefaultFallbackCity = "New York"

var (
	// ErrSuperseded is returned when a newer operation replaced this fetch
	// before it completed; its result was discarded.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	// ErrEmptyCity is returned by Search for blank input.
	ErrEmptyCity = errors.New("city must not be empty")
)

// Snapshotter is the core contract the dashboard consumes.
type Snapshotter interface {
	GetSnapshot(ctx context.Context, q weather.Query, units weather.Units) (weather.WeatherSnapshot, error)
}

// Options tunes dashboards created by a Manager.
type Options struct {
	FallbackCity string
	HistoryLimit int
	Jitter       weather.Jitter
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FallbackCity == "" {
		o.FallbackCity = DefaultFallbackCity
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = session.DefaultHistoryLimit
	}
	if o.Jitter == nil {
		o.Jitter = weather.NewRandJitter(0)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Coordinates is a device position reported by the client.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// View is the read model handed to clients.
type View struct {
	SessionID     string                   `json:"sessionId"`
	WeatherData   *weather.WeatherSnapshot `json:"weatherData"`
	IsLoading     bool                     `json:"isLoading"`
	Error         string                   `json:"error,omitempty"`
	LastUpdated   *time.Time               `json:"lastUpdated,omitempty"`
	Units         weather.Units            `json:"units"`
	UseMock       bool                     `json:"useMockData"`
	SearchHistory []string                 `json:"searchHistory"`
	LastLocation  *weather.Query           `json:"lastLocation,omitempty"`
}

// Dashboard is the per-session state holder. On failure the previous snapshot
// stays in place. IsLoading is advisory: a new operation cancels the one in
// flight and only the most recent generation may publish its result.
type Dashboard struct {
	mu    sync.Mutex
	svc   Snapshotter
	store session.Store
	opts  Options

	sess        session.Session
	snapshot    *weather.WeatherSnapshot
	lastUpdated time.Time
	errMsg      string
	loading     bool
	lastAccess  time.Time

	generation uint64
	cancel     context.CancelFunc

	// saveMu orders store writes so an older copy never lands after a newer one.
	saveMu sync.Mutex
}

func newDashboard(svc Snapshotter, store session.Store, sess session.Session, opts Options) *Dashboard {
	return &Dashboard{
		svc:        svc,
		store:      store,
		opts:       opts,
		sess:       sess,
		lastAccess: opts.Now(),
	}
}

// ID returns the session ID.
func (d *Dashboard) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess.ID
}

// View returns a copy of the current state.
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := View{
		SessionID:     d.sess.ID,
		WeatherData:   d.snapshot,
		IsLoading:     d.loading,
		Error:         d.errMsg,
		Units:         d.sess.Units,
		UseMock:       d.sess.UseMock,
		SearchHistory: append([]string{}, d.sess.SearchHistory...),
	}
	if !d.lastUpdated.IsZero() {
		ts := d.lastUpdated
		v.LastUpdated = &ts
	}
	if d.sess.LastLocation != nil {
		q := *d.sess.LastLocation
		v.LastLocation = &q
	}
	return v
}

// HasLastLocation reports whether a refresh has something to re-fetch.
func (d *Dashboard) HasLastLocation() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sess.LastLocation != nil
}

// Search fetches weather for a city and records it in the search history.
func (d *Dashboard) Search(ctx context.Context, city string) error {
	return d.search(ctx, city, "")
}

// search is Search with a message shown while the fetch is in flight.
func (d *Dashboard) search(ctx context.Context, city, pending string) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}

	d.mu.Lock()
	d.sess.AddSearch(city, d.opts.HistoryLimit)
	mock := d.sess.UseMock
	d.mu.Unlock()

	q := weather.CityQuery(city)
	if mock {
		d.loadMock(&q)
		d.persist(ctx)
		return nil
	}
	return d.fetch(ctx, q, pending)
}

// Locate fetches weather for a device position. A nil position means
// geolocation was unavailable or denied; the fallback city is searched instead.
func (d *Dashboard) Locate(ctx context.Context, pos *Coordinates) error {
	if pos == nil {
		log.Printf("INFO: session %s has no geolocation; falling back to %s", d.ID(), d.opts.FallbackCity)
		return d.search(ctx, d.opts.FallbackCity, MsgGeolocationUnavailable)
	}

	q := weather.CoordinatesQuery(pos.Lat, pos.Lon)

	d.mu.Lock()
	mock := d.sess.UseMock
	d.mu.Unlock()

	if mock {
		d.loadMock(&q)
		d.persist(ctx)
		return nil
	}
	return d.fetch(ctx, q, "")
}

// Refresh re-fetches the last location, or the fallback city when none is
// known.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	mock := d.sess.UseMock
	var last *weather.Query
	if d.sess.LastLocation != nil {
		q := *d.sess.LastLocation
		last = &q
	}
	d.mu.Unlock()

	switch {
	case mock:
		d.loadMock(nil)
		return nil
	case last == nil:
		return d.Locate(ctx, nil)
	case last.IsCoordinates():
		return d.fetch(ctx, *last, "")
	default:
		return d.Search(ctx, last.City)
	}
}

// EnsureLoaded performs the initial fetch for a session that has no snapshot.
func (d *Dashboard) EnsureLoaded(ctx context.Context) error {
	d.mu.Lock()
	needed := d.snapshot == nil && !d.loading
	d.mu.Unlock()

	if !needed {
		return nil
	}
	return d.Refresh(ctx)
}

// SetUnits changes the unit system and re-fetches when a location is known.
func (d *Dashboard) SetUnits(ctx context.Context, units weather.Units) error {
	d.mu.Lock()
	if d.sess.Units == units {
		d.mu.Unlock()
		return nil
	}
	d.sess.Units = units
	hasLast := d.sess.LastLocation != nil
	mock := d.sess.UseMock
	d.mu.Unlock()

	d.persist(ctx)

	switch {
	case mock:
		d.loadMock(nil)
		return nil
	case hasLast:
		return d.Refresh(ctx)
	default:
		return nil
	}
}

// SetMock toggles demonstration data.
func (d *Dashboard) SetMock(ctx context.Context, enabled bool) error {
	d.mu.Lock()
	if d.sess.UseMock == enabled {
		d.mu.Unlock()
		return nil
	}
	d.sess.UseMock = enabled
	hasLast := d.sess.LastLocation != nil
	d.mu.Unlock()

	d.persist(ctx)

	if enabled {
		d.loadMock(nil)
		return nil
	}
	if hasLast {
		return d.Refresh(ctx)
	}
	return nil
}

// ClearHistory forgets the search history.
func (d *Dashboard) ClearHistory(ctx context.Context) {
	d.mu.Lock()
	d.sess.ClearHistory()
	d.mu.Unlock()
	d.persist(ctx)
}

// begin starts a new generation, cancelling whatever was in flight. pending
// replaces the error message until the fetch completes.
func (d *Dashboard) begin(ctx context.Context, pending string) (context.Context, uint64, weather.Units) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	d.generation++
	d.cancel = cancel
	d.loading = true
	d.errMsg = pending
	return fetchCtx, d.generation, d.sess.Units
}

func (d *Dashboard) fetch(ctx context.Context, q weather.Query, pending string) error {
	fetchCtx, gen, units := d.begin(ctx, pending)

	snap, err := d.svc.GetSnapshot(fetchCtx, q, units)

	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return ErrSuperseded
	}
	d.cancel()
	d.cancel = nil
	d.loading = false

	if err != nil {
		d.errMsg = userMessage(err)
		d.mu.Unlock()
		log.Printf("ERROR: session %s fetch for %s failed: %v", d.ID(), q, err)
		// History may have changed even though the fetch failed.
		d.persist(ctx)
		return err
	}

	d.snapshot = &snap
	d.lastUpdated = d.opts.Now()
	d.errMsg = ""
	d.sess.LastLocation = &q
	d.mu.Unlock()

	d.persist(ctx)
	return nil
}

func (d *Dashboard) loadMock(q *weather.Query) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.generation++
	d.loading = false

	snap := weather.MockSnapshot(d.sess.Units, d.opts.Now(), d.opts.Jitter)
	d.snapshot = &snap
	d.lastUpdated = d.opts.Now()
	d.errMsg = ""
	if q != nil {
		d.sess.LastLocation = q
	}
}

func (d *Dashboard) persist(ctx context.Context) {
	if d.store == nil {
		return
	}

	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	d.sess.UpdatedAt = d.opts.Now().UTC()
	snapshot := d.sess.Clone()
	d.mu.Unlock()

	// Persist even when the request context was cancelled mid-way.
	ctx = context.WithoutCancel(ctx)
	if err := d.store.Save(ctx, snapshot); err != nil {
		log.Printf("ERROR: saving session %s: %v", snapshot.ID, err)
	}
}

func (d *Dashboard) touch() {
	d.mu.Lock()
	d.lastAccess = d.opts.Now()
	d.mu.Unlock()
}

func (d *Dashboard) idleSince(cutoff time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastAccess.Before(cutoff) && !d.loading
}

func userMessage(err error) string {
	if weather.IsNotFound(err) {
		return MsgNotFound
	}
	return MsgFetchFailed
}
