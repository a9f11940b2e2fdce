package model

import "time"

// TimeAccumulator tracks how long inference passes take: count, total and
// the slowest one seen.
type TimeAccumulator struct {
	Samples int64
	Total   time.Duration
	Longest time.Duration
}

func (a *TimeAccumulator) AddSample(v time.Duration) {
	a.Samples++
	a.Total += v
	if v > a.Longest {
		a.Longest = v
	}
}

func (a *TimeAccumulator) Average() time.Duration {
	if a.Samples == 0 {
		return 0
	}
	return a.Total / time.Duration(a.Samples)
}

// Millis converts d to fractional milliseconds for stats records.
func Millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
