package contracts

import (
	"math"
	"sort"
	"time"
)

// NavPoint one net-asset-value observation
type NavPoint struct {
	Date time.Time `json:"date" msgpack:"d"`
	NAV  float64   `json:"nav" msgpack:"v"`
}

// BenchmarkPoint one daily benchmark return (fraction)
type BenchmarkPoint struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Return float64   `json:"return" msgpack:"r"`
}

// DateKey truncates t to a calendar day key used for series alignment
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NormalizeNav sorts by date, keeps the last observation per day,
// and drops non-positive or non-finite values.
// The input slice is not modified.
func NormalizeNav(in []NavPoint) []NavPoint {
	if len(in) == 0 {
		return nil
	}

	byDay := make(map[string]NavPoint, len(in))
	for _, p := range in {
		if p.NAV <= 0 || math.IsNaN(p.NAV) || math.IsInf(p.NAV, 0) {
			continue
		}
		byDay[DateKey(p.Date)] = p
	}

	out := make([]NavPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// NormalizeBenchmark sorts by date, keeps the last observation per day,
// and drops non-finite returns.
func NormalizeBenchmark(in []BenchmarkPoint) []BenchmarkPoint {
	if len(in) == 0 {
		return nil
	}

	byDay := make(map[string]BenchmarkPoint, len(in))
	for _, p := range in {
		if math.IsNaN(p.Return) || math.IsInf(p.Return, 0) {
			continue
		}
		byDay[DateKey(p.Date)] = p
	}

	out := make([]BenchmarkPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ReturnsFromCloses converts a close-price series into daily returns.
// The first point has no predecessor and is dropped.
func ReturnsFromCloses(dates []time.Time, closes []float64) []BenchmarkPoint {
	n := len(dates)
	if len(closes) < n {
		n = len(closes)
	}
	if n < 2 {
		return nil
	}

	out := make([]BenchmarkPoint, 0, n-1)
	for i := 1; i < n; i++ {
		if closes[i-1] <= 0 {
			continue
		}
		out = append(out, BenchmarkPoint{
			Date:   dates[i],
			Return: closes[i]/closes[i-1] - 1,
		})
	}
	return out
}
