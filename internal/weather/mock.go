package weather

import (
	"strings"
	"time"
)

var mockConditions = []Condition{
	{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"},
	{ID: 801, Main: "Clouds", Description: "few clouds", Icon: "02d"},
	{ID: 802, Main: "Clouds", Description: "scattered clouds", Icon: "03d"},
	{ID: 803, Main: "Clouds", Description: "broken clouds", Icon: "04d"},
	{ID: 500, Main: "Rain", Description: "light rain", Icon: "10d"},
	{ID: 501, Main: "Rain", Description: "moderate rain", Icon: "09d"},
	{ID: 211, Main: "Thunderstorm", Description: "thunderstorm", Icon: "11d"},
	{ID: 600, Main: "Snow", Description: "light snow", Icon: "13d"},
	{ID: 701, Main: "Mist", Description: "mist", Icon: "50d"},
}

// MockSnapshot returns demonstration data for New York without touching the
// network. It satisfies the same invariants as a normalized snapshot.
func MockSnapshot(units Units, now time.Time, j Jitter) WeatherSnapshot {
	if j == nil {
		j = defaultJitter
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	at := func(dayOffset, hour, minute int) int64 {
		return today.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).Unix()
	}
	pick := func(n int) int { return j.Int(0, n-1) }

	baseTemp, baseMax, baseMin := 22, 25, 15
	cur := CurrentConditions{
		City: "New York", Country: "US",
		Description: "partly cloudy", Icon: "02d",
		Temp: 24, FeelsLike: 25, TempMin: 22, TempMax: 26,
	}
	if units == UnitsImperial {
		baseTemp, baseMax, baseMin = 72, 77, 59
		cur.Temp, cur.FeelsLike, cur.TempMin, cur.TempMax = 75, 77, 72, 79
	}
	visibility := 10000
	cur.Humidity = 65
	cur.WindSpeed = 5.2
	cur.WindDeg = 220
	cur.Clouds = 40
	cur.Sunrise = at(0, 6, 30)
	cur.Sunset = at(0, 19, 15)
	cur.Dt = now.Unix()
	cur.UVI = 4.5
	cur.Visibility = &visibility
	cur.Lat, cur.Lon = 40.7128, -74.006

	hourly := make([]HourlyPoint, 0, 24)
	startHour := now.Truncate(time.Hour)
	for i := 0; i < 24; i++ {
		ts := startHour.Add(time.Duration(i) * time.Hour)
		hour := ts.Hour()
		night := hour < 6 || hour > 18

		variation := 0
		switch {
		case hour > 6 && hour < 15:
			variation = 5
		case night:
			variation = -3
		}

		cond := mockConditions[pick(5)]
		if night {
			cond.Icon = strings.Replace(cond.Icon, "d", "n", 1)
		}
		hourly = append(hourly, HourlyPoint{
			Dt:        ts.Unix(),
			Temp:      baseTemp + variation + j.Int(0, 2),
			FeelsLike: baseTemp + variation + j.Int(0, 1) - 1,
			Humidity:  50 + j.Int(0, 29),
			Weather:   cond,
			Pop:       j.Float(0, 0.5),
		})
	}

	daily := make([]DailyPoint, 0, ForecastDays)
	for i := 0; i < ForecastDays; i++ {
		adj := 0
		switch {
		case i > 0 && i < 4:
			adj = i
		case i >= 4:
			adj = ForecastDays - i
		}
		maxT := baseMax + adj + j.Int(0, 2)
		minT := baseMin + adj - j.Int(0, 2)

		daily = append(daily, DailyPoint{
			Dt:      at(i, 12, 0),
			Sunrise: at(i, 6, 30),
			Sunset:  at(i, 19, 15),
			Temp: DailyTemp{
				Day: maxT - 2, Min: minT, Max: maxT,
				Night: minT + 2, Eve: maxT - 4, Morn: minT + 3,
			},
			FeelsLike: DailyFeelsLike{
				Day: maxT - 3, Night: minT + 1, Eve: maxT - 5, Morn: minT + 2,
			},
			Humidity:  50 + j.Int(0, 29),
			Weather:   mockConditions[pick(len(mockConditions))],
			WindSpeed: roundTo(j.Float(2, 10), 2),
			WindDeg:   j.Int(0, 359),
			Pop:       j.Float(0, 0.7),
		})
	}

	return WeatherSnapshot{Current: cur, Hourly: hourly, Daily: daily}
}
