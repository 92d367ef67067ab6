package weather

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-11-14 00:00:00 UTC
const fixtureStart int64 = 1699920000

type fixedJitter struct {
	i int
	f float64
}

func (j fixedJitter) Int(lo, hi int) int {
	return clampInt(j.i, lo, hi)
}

func (j fixedJitter) Float(lo, hi float64) float64 {
	return min(max(j.f, lo), hi)
}

var (
	clearSky = RawCondition{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}
	rain     = RawCondition{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"}
)

// forecastFixture builds days*8 three-hourly samples starting at start. Day d
// has a constant temperature of 280+d K; the noon sample is rainy.
func forecastFixture(start int64, days, offset int) *RawForecast {
	f := &RawForecast{}
	f.City.Name = "Paris"
	f.City.Country = "FR"
	f.City.Timezone = offset
	f.City.Sunrise = start + 7*3600
	f.City.Sunset = start + 17*3600

	for d := 0; d < days; d++ {
		for s := 0; s < 8; s++ {
			temp := 280.0 + float64(d)
			item := RawForecastItem{
				Dt: start + int64(d*secondsPerDay+s*3*3600),
				Main: RawMain{
					Temp:      temp,
					FeelsLike: temp - 2,
					TempMin:   temp - 1,
					TempMax:   temp + 1,
					Humidity:  60 + s,
				},
				Weather: []RawCondition{clearSky},
				Wind:    RawWind{Speed: 3, Deg: 90},
				Pop:     0.1,
			}
			if s == 4 {
				item.Weather = []RawCondition{rain}
				item.Wind.Deg = 180
				item.Main.TempMax = temp + 3
			}
			f.List = append(f.List, item)
		}
	}
	return f
}

func currentFixture() *RawCurrent {
	c := &RawCurrent{
		Dt:       fixtureStart,
		Timezone: 0,
		Weather:  []RawCondition{clearSky},
		Main:     &RawMain{Temp: 293.15, FeelsLike: 292.15, TempMin: 290.15, TempMax: 295.15, Humidity: 55},
		Wind:     RawWind{Speed: 4.1, Deg: 270},
		Clouds:   RawClouds{All: 20},
		Name:     "Paris",
	}
	c.Sys.Country = "FR"
	c.Sys.Sunrise = fixtureStart + 7*3600
	c.Sys.Sunset = fixtureStart + 17*3600
	return c
}

func parisLocation() Location {
	return Location{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522}
}

func TestNormalizeFiveDaysBecomeSeven(t *testing.T) {
	n := NewNormalizer(0, NewRandJitter(1))
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 5, 0)}
	require.NoError(t, n.Validate(raw))

	snap := n.Normalize(parisLocation(), raw, UnitsMetric)

	require.Len(t, snap.Daily, ForecastDays)
	require.Len(t, snap.Hourly, DefaultHourlyLimit)

	for i := 1; i < len(snap.Daily); i++ {
		assert.Greater(t, snap.Daily[i].Dt, snap.Daily[i-1].Dt, "daily %d", i)
	}
	for i := 1; i < len(snap.Hourly); i++ {
		assert.Greater(t, snap.Hourly[i].Dt, snap.Hourly[i-1].Dt, "hourly %d", i)
	}

	last := snap.Daily[4]
	for k, day := range snap.Daily[5:] {
		assert.InDelta(t, last.Temp.Day, day.Temp.Day, syntheticTempDelta)
		assert.InDelta(t, last.Temp.Min, day.Temp.Min, syntheticTempDelta)
		assert.InDelta(t, last.Temp.Max, day.Temp.Max, syntheticTempDelta)
		assert.InDelta(t, last.Humidity, day.Humidity, syntheticHumidityDelta)
		assert.InDelta(t, last.WindSpeed, day.WindSpeed, syntheticWindDelta+0.005)
		assert.GreaterOrEqual(t, day.WindSpeed, 0.0)
		assert.Equal(t, last.Weather, day.Weather)
		assert.Equal(t, last.Pop, day.Pop)
		assert.Zero(t, day.UVI)
		assert.Equal(t, last.Dt+int64(k+1)*secondsPerDay, day.Dt)
		assert.Equal(t, last.Sunrise+int64(k+1)*(secondsPerDay+syntheticSunShift), day.Sunrise)
	}
}

func TestNormalizeDailyAggregation(t *testing.T) {
	n := NewNormalizer(0, fixedJitter{})
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 5, 0)}

	snap := n.Normalize(parisLocation(), raw, UnitsMetric)

	day := snap.Daily[1]
	assert.Equal(t, fixtureStart+secondsPerDay+secondsPerDay/2, day.Dt)
	assert.Equal(t, ToCelsius(281), day.Temp.Day)
	assert.Equal(t, ToCelsius(280), day.Temp.Min)
	assert.Equal(t, ToCelsius(284), day.Temp.Max)
	assert.Equal(t, day.Temp.Day-3, day.Temp.Night)
	assert.Equal(t, day.Temp.Day-1, day.Temp.Eve)
	assert.Equal(t, day.Temp.Day-2, day.Temp.Morn)
	assert.Equal(t, ToCelsius(279), day.FeelsLike.Day)
	// mean of 60..67
	assert.Equal(t, 64, day.Humidity)
	assert.Equal(t, 3.0, day.WindSpeed)
	// the noon sample decides condition and direction
	assert.Equal(t, "Rain", day.Weather.Main)
	assert.Equal(t, 180, day.WindDeg)
	assert.Equal(t, fixtureStart+7*3600+secondsPerDay, day.Sunrise)
}

func TestNormalizeCurrent(t *testing.T) {
	n := NewNormalizer(0, fixedJitter{})
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 5, 0)}

	snap := n.Normalize(parisLocation(), raw, UnitsImperial)

	cur := snap.Current
	assert.Equal(t, "Paris", cur.City)
	assert.Equal(t, "FR", cur.Country)
	assert.Equal(t, 68, cur.Temp)
	assert.Equal(t, 66, cur.FeelsLike)
	assert.Equal(t, 55, cur.Humidity)
	assert.Equal(t, "clear sky", cur.Description)
	assert.Equal(t, "01d", cur.Icon)
	assert.Equal(t, 48.8566, cur.Lat)
	assert.Equal(t, ToFahrenheit(280), snap.Hourly[0].Temp)
}

func TestNormalizeBucketsByLocalDate(t *testing.T) {
	const offset = -5 * 3600
	n := NewNormalizer(0, fixedJitter{})
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 5, offset)}

	snap := n.Normalize(parisLocation(), raw, UnitsMetric)

	require.Len(t, snap.Daily, ForecastDays)
	// 00:00 and 03:00 UTC still fall on the previous local day.
	assert.Equal(t, fixtureStart-secondsPerDay+secondsPerDay/2-offset, snap.Daily[0].Dt)
	for i := 1; i < len(snap.Daily); i++ {
		assert.Equal(t, snap.Daily[i-1].Dt+secondsPerDay, snap.Daily[i].Dt)
	}
}

func TestNormalizePopIsClamped(t *testing.T) {
	f := forecastFixture(fixtureStart, 5, 0)
	f.List[0].Pop = 1.7
	f.List[9].Pop = -0.4

	n := NewNormalizer(0, NewRandJitter(3))
	snap := n.Normalize(parisLocation(), RawPayloads{Current: currentFixture(), Forecast: f}, UnitsMetric)

	assert.Equal(t, 1.0, snap.Hourly[0].Pop)
	assert.Equal(t, 0.0, snap.Hourly[9].Pop)
	assert.Equal(t, 1.0, snap.Daily[0].Pop)
	for _, h := range snap.Hourly {
		assert.True(t, h.Pop >= 0 && h.Pop <= 1)
	}
	for _, d := range snap.Daily {
		assert.True(t, d.Pop >= 0 && d.Pop <= 1)
	}
}

func TestNormalizeSyntheticWindFloor(t *testing.T) {
	f := forecastFixture(fixtureStart, 5, 0)
	for i := range f.List {
		f.List[i].Wind.Speed = 0.4
	}
	n := NewNormalizer(0, fixedJitter{i: 9, f: -1})

	snap := n.Normalize(parisLocation(), RawPayloads{Current: currentFixture(), Forecast: f}, UnitsMetric)

	base := snap.Daily[4]
	for _, day := range snap.Daily[5:] {
		assert.Equal(t, 0.0, day.WindSpeed)
		assert.Equal(t, base.Temp.Day+syntheticTempDelta, day.Temp.Day)
		assert.Equal(t, clampInt(base.Humidity+syntheticHumidityDelta, 0, 100), day.Humidity)
	}
}

func TestNormalizeTruncatesToSevenDays(t *testing.T) {
	n := NewNormalizer(4, fixedJitter{})
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 9, 0)}

	snap := n.Normalize(parisLocation(), raw, UnitsMetric)

	assert.Len(t, snap.Daily, ForecastDays)
	assert.Len(t, snap.Hourly, 4)
}

func TestHourlyLimitIsBounded(t *testing.T) {
	raw := RawPayloads{Current: currentFixture(), Forecast: forecastFixture(fixtureStart, 5, 0)}

	for _, limit := range []int{-3, 0, 17, 40} {
		n := NewNormalizer(limit, fixedJitter{})
		snap := n.Normalize(parisLocation(), raw, UnitsMetric)
		assert.Len(t, snap.Hourly, DefaultHourlyLimit, "limit %d", limit)
	}

	// A Normalizer built without the constructor is bounded too.
	snap := Normalizer{HourlyLimit: 40, Jitter: fixedJitter{}}.Normalize(parisLocation(), raw, UnitsMetric)
	assert.Len(t, snap.Hourly, DefaultHourlyLimit)
}

func TestValidate(t *testing.T) {
	n := NewNormalizer(0, fixedJitter{})

	var pe *PreconditionError
	err := n.Validate(RawPayloads{Forecast: forecastFixture(fixtureStart, 5, 0)})
	assert.True(t, errors.As(err, &pe))

	err = n.Validate(RawPayloads{Current: currentFixture(), Forecast: &RawForecast{}})
	assert.True(t, errors.As(err, &pe))

	f := forecastFixture(fixtureStart, 5, 0)
	f.List[3].Dt = f.List[2].Dt
	err = n.Validate(RawPayloads{Current: currentFixture(), Forecast: f})
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Reason, "out of order")

	err = n.Validate(RawPayloads{OneCall: &RawOneCall{}})
	assert.True(t, errors.As(err, &pe))
}

func oneCallFixture(hours, days int) *RawOneCall {
	oc := &RawOneCall{
		Lat:            48.8566,
		Lon:            2.3522,
		TimezoneOffset: 3600,
		Current: &RawOneCallCurrent{
			Dt:        fixtureStart,
			Temp:      283.15,
			FeelsLike: 281.15,
			Humidity:  70,
			UVI:       3.2,
			WindSpeed: 2.5,
			WindDeg:   45,
			Weather:   []RawCondition{clearSky},
		},
	}
	for i := 0; i < hours; i++ {
		oc.Hourly = append(oc.Hourly, RawOneCallHourly{
			Dt:      fixtureStart + int64(i*3600),
			Temp:    283.15,
			Weather: []RawCondition{clearSky},
			Pop:     0.2,
		})
	}
	for i := 0; i < days; i++ {
		d := RawOneCallDaily{
			Dt:        fixtureStart + int64(i*secondsPerDay) + secondsPerDay/2,
			Humidity:  60,
			WindSpeed: 3,
			Weather:   []RawCondition{rain},
			Pop:       0.5,
			UVI:       4,
		}
		d.Temp.Day, d.Temp.Min, d.Temp.Max = 285.15, 280.15, 288.15
		d.Temp.Night, d.Temp.Eve, d.Temp.Morn = 279.15, 284.15, 281.15
		oc.Daily = append(oc.Daily, d)
	}
	return oc
}

func TestNormalizeOneCall(t *testing.T) {
	n := NewNormalizer(0, fixedJitter{})
	raw := RawPayloads{OneCall: oneCallFixture(48, 8)}
	require.NoError(t, n.Validate(raw))

	snap := n.Normalize(parisLocation(), raw, UnitsMetric)

	assert.Len(t, snap.Hourly, DefaultOneCallHourlyLimit)
	require.Len(t, snap.Daily, ForecastDays)
	assert.Equal(t, 10, snap.Current.Temp)
	assert.Equal(t, 3.2, snap.Current.UVI)
	assert.Equal(t, 3600, snap.Current.Timezone)
	assert.Equal(t, "Paris", snap.Current.City)

	d := snap.Daily[0]
	assert.Equal(t, DailyTemp{Day: 12, Min: 7, Max: 15, Night: 6, Eve: 11, Morn: 8}, d.Temp)
	assert.Equal(t, 4.0, d.UVI)
}

func TestNormalizeOneCallPadsShortDaily(t *testing.T) {
	n := NewNormalizer(0, fixedJitter{i: 1, f: 0.5})
	snap := n.Normalize(parisLocation(), RawPayloads{OneCall: oneCallFixture(10, 3)}, UnitsImperial)

	assert.Len(t, snap.Hourly, 10)
	require.Len(t, snap.Daily, ForecastDays)
	for _, d := range snap.Daily[3:] {
		assert.Zero(t, d.UVI)
		assert.Equal(t, snap.Daily[2].Temp.Max+1, d.Temp.Max)
		assert.Equal(t, 3.5, d.WindSpeed)
	}
}
