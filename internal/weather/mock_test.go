package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSnapshot(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	for _, units := range []Units{UnitsMetric, UnitsImperial} {
		snap := MockSnapshot(units, now, NewRandJitter(5))

		assert.Equal(t, "New York", snap.Current.City)
		require.Len(t, snap.Hourly, 24)
		require.Len(t, snap.Daily, ForecastDays)

		for i := 1; i < len(snap.Hourly); i++ {
			assert.Greater(t, snap.Hourly[i].Dt, snap.Hourly[i-1].Dt)
		}
		for i := 1; i < len(snap.Daily); i++ {
			assert.Greater(t, snap.Daily[i].Dt, snap.Daily[i-1].Dt)
		}
		for _, d := range snap.Daily {
			assert.True(t, d.Pop >= 0 && d.Pop <= 1)
			assert.LessOrEqual(t, d.Temp.Min, d.Temp.Max)
		}
	}

	metric := MockSnapshot(UnitsMetric, now, fixedJitter{})
	imperial := MockSnapshot(UnitsImperial, now, fixedJitter{})
	assert.Equal(t, 24, metric.Current.Temp)
	assert.Equal(t, 75, imperial.Current.Temp)
	assert.Equal(t, now.Truncate(time.Hour).Unix(), metric.Hourly[0].Dt)
}
