package weather

import (
	"fmt"
)

const (
	// ForecastDays is the fixed length of WeatherSnapshot.Daily.
	ForecastDays = 7
	// DefaultHourlyLimit is the number of 3-hour samples kept as the hourly strip.
	DefaultHourlyLimit = 16
	// DefaultOneCallHourlyLimit is the hourly strip length on the one-call path.
	DefaultOneCallHourlyLimit = 24

	// Night, evening and morning temperatures are fixed offsets below the day
	// mean; they are not observed values.
	nightOffset = 3
	eveOffset   = 1
	mornOffset  = 2

	// Bounds of the perturbation applied to synthetic days.
	syntheticTempDelta     = 2
	syntheticHumidityDelta = 5
	syntheticWindDelta     = 1.0
	// Sunrise/sunset drift per synthetic day, in seconds.
	syntheticSunShift = 60
)

var defaultJitter = NewRandJitter(0)

// Normalizer turns raw provider payloads into a WeatherSnapshot. It performs no
// I/O.
type Normalizer struct {
	HourlyLimit int
	Jitter      Jitter
}

// NewNormalizer returns a Normalizer. hourlyLimit is clamped to
// [1, DefaultHourlyLimit] with <= 0 selecting the default; a nil jitter selects
// a time-seeded source.
func NewNormalizer(hourlyLimit int, jitter Jitter) Normalizer {
	hourlyLimit = clampHourlyLimit(hourlyLimit)
	if jitter == nil {
		jitter = defaultJitter
	}
	return Normalizer{HourlyLimit: hourlyLimit, Jitter: jitter}
}

func clampHourlyLimit(n int) int {
	if n <= 0 || n > DefaultHourlyLimit {
		return DefaultHourlyLimit
	}
	return n
}

// Validate checks that raw is well formed enough to normalize.
func (n Normalizer) Validate(raw RawPayloads) error {
	if raw.OneCall != nil {
		oc := raw.OneCall
		if oc.Current == nil {
			return &PreconditionError{Reason: "one-call payload has no current block"}
		}
		if len(oc.Daily) == 0 {
			return &PreconditionError{Reason: "one-call payload has no daily entries"}
		}
		for i := 1; i < len(oc.Hourly); i++ {
			if oc.Hourly[i].Dt <= oc.Hourly[i-1].Dt {
				return &PreconditionError{Reason: fmt.Sprintf("hourly entry %d is out of order", i)}
			}
		}
		for i := 1; i < len(oc.Daily); i++ {
			if oc.Daily[i].Dt <= oc.Daily[i-1].Dt {
				return &PreconditionError{Reason: fmt.Sprintf("daily entry %d is out of order", i)}
			}
		}
		return nil
	}

	if raw.Current == nil || raw.Current.Main == nil {
		return &PreconditionError{Reason: "missing current conditions"}
	}
	if raw.Forecast == nil || len(raw.Forecast.List) == 0 {
		return &PreconditionError{Reason: "missing forecast list"}
	}
	for i := 1; i < len(raw.Forecast.List); i++ {
		if raw.Forecast.List[i].Dt <= raw.Forecast.List[i-1].Dt {
			return &PreconditionError{Reason: fmt.Sprintf("forecast sample %d is out of order", i)}
		}
	}
	return nil
}

// Normalize builds the snapshot. raw must have passed Validate.
func (n Normalizer) Normalize(loc Location, raw RawPayloads, units Units) WeatherSnapshot {
	n.HourlyLimit = clampHourlyLimit(n.HourlyLimit)
	if n.Jitter == nil {
		n.Jitter = defaultJitter
	}
	if raw.OneCall != nil {
		return n.normalizeOneCall(loc, raw.OneCall, units)
	}

	daily := n.dailyFromForecast(raw.Forecast, raw.Current, units)
	return WeatherSnapshot{
		Current: currentFromRaw(loc, raw.Current, units),
		Hourly:  n.hourlyFromForecast(raw.Forecast.List, units),
		Daily:   n.extendDaily(daily),
	}
}

func currentFromRaw(loc Location, c *RawCurrent, units Units) CurrentConditions {
	cur := CurrentConditions{
		City:       firstNonEmpty(loc.Name, c.Name),
		Country:    firstNonEmpty(loc.Country, c.Sys.Country),
		Temp:       units.Convert(c.Main.Temp),
		FeelsLike:  units.Convert(c.Main.FeelsLike),
		TempMin:    units.Convert(c.Main.TempMin),
		TempMax:    units.Convert(c.Main.TempMax),
		Humidity:   c.Main.Humidity,
		WindSpeed:  c.Wind.Speed,
		WindDeg:    c.Wind.Deg,
		Clouds:     c.Clouds.All,
		Sunrise:    c.Sys.Sunrise,
		Sunset:     c.Sys.Sunset,
		Timezone:   c.Timezone,
		Dt:         c.Dt,
		Visibility: c.Visibility,
		Rain:       c.Rain,
		Snow:       c.Snow,
		Lat:        loc.Lat,
		Lon:        loc.Lon,
	}
	if len(c.Weather) > 0 {
		cur.Description = c.Weather[0].Description
		cur.Icon = c.Weather[0].Icon
	}
	return cur
}

func (n Normalizer) hourlyFromForecast(items []RawForecastItem, units Units) []HourlyPoint {
	limit := min(n.HourlyLimit, len(items))
	hourly := make([]HourlyPoint, 0, limit)
	for _, it := range items[:limit] {
		hourly = append(hourly, HourlyPoint{
			Dt:        it.Dt,
			Temp:      units.Convert(it.Main.Temp),
			FeelsLike: units.Convert(it.Main.FeelsLike),
			Humidity:  it.Main.Humidity,
			Weather:   primaryCondition(it.Weather),
			Pop:       clampPop(it.Pop),
		})
	}
	return hourly
}

func (n Normalizer) dailyFromForecast(f *RawForecast, c *RawCurrent, units Units) []DailyPoint {
	offset := f.City.Timezone
	sunrise, sunset := f.City.Sunrise, f.City.Sunset
	if sunrise == 0 && c != nil {
		sunrise, sunset = c.Sys.Sunrise, c.Sys.Sunset
	}

	buckets := bucketByLocalDay(f.List, offset)
	daily := make([]DailyPoint, 0, ForecastDays)
	var first int64

	for i, samples := range buckets {
		if len(daily) == ForecastDays {
			break
		}
		agg := aggregateDay(samples, offset)
		if i == 0 {
			first = agg.midnight
		}
		shift := agg.midnight - first

		day := units.Convert(agg.meanK)
		feels := units.Convert(agg.meanFeelsK)
		daily = append(daily, DailyPoint{
			Dt:      agg.midnight + secondsPerDay/2 - int64(offset),
			Sunrise: sunrise + shift,
			Sunset:  sunset + shift,
			Temp: DailyTemp{
				Day:   day,
				Min:   units.Convert(agg.minK),
				Max:   units.Convert(agg.maxK),
				Night: day - nightOffset,
				Eve:   day - eveOffset,
				Morn:  day - mornOffset,
			},
			FeelsLike: DailyFeelsLike{
				Day:   feels,
				Night: feels - nightOffset,
				Eve:   feels - eveOffset,
				Morn:  feels - mornOffset,
			},
			Humidity:  agg.humidity,
			Weather:   primaryCondition(agg.representative.Weather),
			WindSpeed: agg.windSpeed,
			WindDeg:   agg.representative.Wind.Deg,
			Pop:       agg.pop,
		})
	}
	return daily
}

// extendDaily pads daily to ForecastDays with synthetic days derived from the
// last real day. Synthetic days carry no predictive value and are not flagged;
// they are recognisable only by position.
func (n Normalizer) extendDaily(daily []DailyPoint) []DailyPoint {
	if len(daily) > ForecastDays {
		return daily[:ForecastDays]
	}
	if len(daily) == 0 {
		return daily
	}

	base := daily[len(daily)-1]
	for k := int64(1); len(daily) < ForecastDays; k++ {
		delta := n.Jitter.Int(-syntheticTempDelta, syntheticTempDelta)
		wind := roundTo(base.WindSpeed+n.Jitter.Float(-syntheticWindDelta, syntheticWindDelta), 2)
		if wind < 0 {
			wind = 0
		}

		day := base
		day.Dt = base.Dt + k*secondsPerDay
		day.Sunrise = base.Sunrise + k*(secondsPerDay+syntheticSunShift)
		day.Sunset = base.Sunset + k*(secondsPerDay+syntheticSunShift)
		day.Temp = DailyTemp{
			Day:   base.Temp.Day + delta,
			Min:   base.Temp.Min + delta,
			Max:   base.Temp.Max + delta,
			Night: base.Temp.Night + delta,
			Eve:   base.Temp.Eve + delta,
			Morn:  base.Temp.Morn + delta,
		}
		day.FeelsLike = DailyFeelsLike{
			Day:   base.FeelsLike.Day + delta,
			Night: base.FeelsLike.Night + delta,
			Eve:   base.FeelsLike.Eve + delta,
			Morn:  base.FeelsLike.Morn + delta,
		}
		day.Humidity = clampInt(base.Humidity+n.Jitter.Int(-syntheticHumidityDelta, syntheticHumidityDelta), 0, 100)
		day.WindSpeed = wind
		day.UVI = 0

		daily = append(daily, day)
	}
	return daily
}

func (n Normalizer) normalizeOneCall(loc Location, oc *RawOneCall, units Units) WeatherSnapshot {
	c := oc.Current
	cur := CurrentConditions{
		City:       loc.Name,
		Country:    loc.Country,
		Temp:       units.Convert(c.Temp),
		FeelsLike:  units.Convert(c.FeelsLike),
		Humidity:   c.Humidity,
		WindSpeed:  c.WindSpeed,
		WindDeg:    c.WindDeg,
		Clouds:     c.Clouds,
		Sunrise:    c.Sunrise,
		Sunset:     c.Sunset,
		Timezone:   oc.TimezoneOffset,
		Dt:         c.Dt,
		UVI:        c.UVI,
		Visibility: c.Visibility,
		Rain:       c.Rain,
		Snow:       c.Snow,
		Lat:        loc.Lat,
		Lon:        loc.Lon,
	}
	if len(c.Weather) > 0 {
		cur.Description = c.Weather[0].Description
		cur.Icon = c.Weather[0].Icon
	}

	limit := min(DefaultOneCallHourlyLimit, len(oc.Hourly))
	hourly := make([]HourlyPoint, 0, limit)
	for _, h := range oc.Hourly[:limit] {
		hourly = append(hourly, HourlyPoint{
			Dt:        h.Dt,
			Temp:      units.Convert(h.Temp),
			FeelsLike: units.Convert(h.FeelsLike),
			Humidity:  h.Humidity,
			Weather:   primaryCondition(h.Weather),
			Pop:       clampPop(h.Pop),
		})
	}

	daily := make([]DailyPoint, 0, ForecastDays)
	for _, d := range oc.Daily {
		if len(daily) == ForecastDays {
			break
		}
		daily = append(daily, DailyPoint{
			Dt:      d.Dt,
			Sunrise: d.Sunrise,
			Sunset:  d.Sunset,
			Temp: DailyTemp{
				Day:   units.Convert(d.Temp.Day),
				Min:   units.Convert(d.Temp.Min),
				Max:   units.Convert(d.Temp.Max),
				Night: units.Convert(d.Temp.Night),
				Eve:   units.Convert(d.Temp.Eve),
				Morn:  units.Convert(d.Temp.Morn),
			},
			FeelsLike: DailyFeelsLike{
				Day:   units.Convert(d.FeelsLike.Day),
				Night: units.Convert(d.FeelsLike.Night),
				Eve:   units.Convert(d.FeelsLike.Eve),
				Morn:  units.Convert(d.FeelsLike.Morn),
			},
			Humidity:  d.Humidity,
			Weather:   primaryCondition(d.Weather),
			WindSpeed: d.WindSpeed,
			WindDeg:   d.WindDeg,
			Pop:       clampPop(d.Pop),
			UVI:       d.UVI,
		})
	}

	return WeatherSnapshot{
		Current: cur,
		Hourly:  hourly,
		Daily:   n.extendDaily(daily),
	}
}

func primaryCondition(items []RawCondition) Condition {
	if len(items) == 0 {
		return Condition{}
	}
	c := items[0]
	return Condition{ID: c.ID, Main: c.Main, Description: c.Description, Icon: c.Icon}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
