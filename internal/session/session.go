package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultHistoryLimit is how many recent searches are remembered.
const DefaultHistoryLimit = 10

// ErrNotFound is returned by a Store when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Session holds the user's preferences and history. It is passed explicitly to
// the dashboard and persisted through a Store.
type Session struct {
	ID            string         `json:"id"`
	Units         weather.Units  `json:"units"`
	LastLocation  *weather.Query `json:"lastLocation,omitempty"`
	SearchHistory []string       `json:"searchHistory"`
	UseMock       bool           `json:"useMock"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// New creates a session with a fresh ID.
func New(units weather.Units) Session {
	if units == "" {
		units = weather.UnitsMetric
	}
	return Session{
		ID:            uuid.NewString(),
		Units:         units,
		SearchHistory: []string{},
		UpdatedAt:     time.Now().UTC(),
	}
}

// AddSearch records city at the front of the history unless it is already
// present, keeping at most limit entries.
func (s *Session) AddSearch(city string, limit int) {
	city = strings.TrimSpace(city)
	if city == "" {
		return
	}
	for _, c := range s.SearchHistory {
		if c == city {
			return
		}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	history := make([]string, 0, limit)
	history = append(history, city)
	for _, c := range s.SearchHistory {
		if len(history) == limit {
			break
		}
		history = append(history, c)
	}
	s.SearchHistory = history
}

// ClearHistory forgets all recorded searches.
func (s *Session) ClearHistory() {
	s.SearchHistory = []string{}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s Session) Clone() Session {
	out := s
	out.SearchHistory = append([]string(nil), s.SearchHistory...)
	if s.LastLocation != nil {
		q := *s.LastLocation
		if q.Lat != nil {
			lat := *q.Lat
			q.Lat = &lat
		}
		if q.Lon != nil {
			lon := *q.Lon
			q.Lon = &lon
		}
		out.LastLocation = &q
	}
	return out
}

// Store persists sessions. Load returns ErrNotFound for unknown IDs.
type Store interface {
	Load(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Close() error
}
