package weather

import (
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// dayAggregate is one local calendar day of forecast samples reduced to
// Kelvin-valued aggregates. Conversion to the caller's units happens later, once
// per leaf.
type dayAggregate struct {
	// midnight is local midnight expressed in the shifted (dt + offset) frame.
	midnight int64

	minK       float64
	maxK       float64
	meanK      float64
	meanFeelsK float64
	humidity   int
	windSpeed  float64
	pop        float64

	// representative is the sample closest to local noon.
	representative RawForecastItem
}

// localMidnight returns local midnight of the day containing ts, in the
// shifted frame.
func localMidnight(ts int64, offset int) int64 {
	shifted := time.Unix(ts+int64(offset), 0).UTC()
	return time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// bucketByLocalDay groups a chronological sample list by local calendar date,
// preserving chronological order of the days.
func bucketByLocalDay(items []RawForecastItem, offset int) [][]RawForecastItem {
	var (
		buckets [][]RawForecastItem
		current int64
	)
	for i, it := range items {
		m := localMidnight(it.Dt, offset)
		if i == 0 || m != current {
			buckets = append(buckets, nil)
			current = m
		}
		buckets[len(buckets)-1] = append(buckets[len(buckets)-1], it)
	}
	return buckets
}

// aggregateDay reduces the samples of a single day. Temperatures are averaged,
// min/max come from the sample-level extremes, pop is the highest sample pop.
func aggregateDay(samples []RawForecastItem, offset int) dayAggregate {
	agg := dayAggregate{
		midnight: localMidnight(samples[0].Dt, offset),
		minK:     math.Inf(1),
		maxK:     math.Inf(-1),
	}

	var (
		sumTemp     float64
		sumFeels    float64
		sumHumidity float64
		sumWind     float64
	)

	noon := agg.midnight + secondsPerDay/2
	bestDist := int64(math.MaxInt64)

	for _, s := range samples {
		sumTemp += s.Main.Temp
		sumFeels += s.Main.FeelsLike
		sumHumidity += float64(s.Main.Humidity)
		sumWind += s.Wind.Speed

		if s.Main.TempMin < agg.minK {
			agg.minK = s.Main.TempMin
		}
		if s.Main.TempMax > agg.maxK {
			agg.maxK = s.Main.TempMax
		}
		if p := clampPop(s.Pop); p > agg.pop {
			agg.pop = p
		}

		dist := s.Dt + int64(offset) - noon
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			agg.representative = s
		}
	}

	n := float64(len(samples))
	agg.meanK = sumTemp / n
	agg.meanFeelsK = sumFeels / n
	agg.humidity = int(math.Round(sumHumidity / n))
	agg.windSpeed = roundTo(sumWind/n, 2)

	return agg
}

func clampPop(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
