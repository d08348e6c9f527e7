package synth

import "time"

// InterpolationPolicy assigns per-stop clock times along a trip given only
// its overall start and end. It is pluggable so a travel-time model can
// replace the uniform spacing without touching the synthesis pipeline.
type InterpolationPolicy interface {
	StopTimes(start, end time.Time, n int) []string
}

// UniformInterpolation spreads the n stops evenly across the trip span:
// interval = duration/n, and stop i departs at start + i*interval. The last
// stop therefore gets start + (n-1)*interval, not the trip's end time. The
// even spacing is a deliberate approximation; real dwell and travel times
// are not uniform, but the source data carries nothing finer.
type UniformInterpolation struct{}

// StopTimes returns n wall-clock times formatted HH:MM:SS
func (UniformInterpolation) StopTimes(start, end time.Time, n int) []string {
	if n <= 0 {
		return nil
	}

	interval := end.Sub(start).Seconds() / float64(n)

	out := make([]string, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(float64(i) * interval * float64(time.Second))
		out[i] = start.Add(offset).Format("15:04:05")
	}
	return out
}
