package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestNew(t *testing.T) {
	s := New("")
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.Equal(t, weather.UnitsMetric, s.Units)
	assert.Empty(t, s.SearchHistory)
	assert.NotEqual(t, s.ID, New(weather.UnitsImperial).ID)
}

func TestAddSearch(t *testing.T) {
	s := New(weather.UnitsMetric)

	s.AddSearch("London", 3)
	s.AddSearch(" Paris ", 3)
	s.AddSearch("London", 3)
	s.AddSearch("", 3)
	assert.Equal(t, []string{"Paris", "London"}, s.SearchHistory)

	s.AddSearch("Tokyo", 3)
	s.AddSearch("Lima", 3)
	assert.Equal(t, []string{"Lima", "Tokyo", "Paris"}, s.SearchHistory)

	s.ClearHistory()
	assert.Empty(t, s.SearchHistory)
}

func TestAddSearchDefaultLimit(t *testing.T) {
	s := New(weather.UnitsMetric)
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		s.AddSearch(c, 0)
	}
	assert.Len(t, s.SearchHistory, DefaultHistoryLimit)
	assert.Equal(t, "l", s.SearchHistory[0])
}

func TestClone(t *testing.T) {
	s := New(weather.UnitsMetric)
	s.AddSearch("Paris", 0)
	q := weather.CoordinatesQuery(1, 2)
	s.LastLocation = &q

	c := s.Clone()
	c.SearchHistory[0] = "Rome"
	*c.LastLocation.Lat = 9

	assert.Equal(t, "Paris", s.SearchHistory[0])
	assert.Equal(t, 1.0, *s.LastLocation.Lat)
}
