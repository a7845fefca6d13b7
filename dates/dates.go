// Package dates draws randomized send times within a configured date range,
// optionally biased so a percentage of timestamps falls inside a daily
// business-hours window. All sampling is in UTC.
package dates

import (
	"math/rand"
	"time"
)

const minutesPerDay = 24 * 60

// Window is a daily business-hours window expressed in minutes from
// midnight UTC. StartMin must be strictly less than EndMin.
type Window struct {
	StartMin int
	EndMin   int
}

// Sampler produces timestamps within [start, end]. With a nil window the
// draw is uniform over the continuous interval; otherwise the minute of day
// is biased into the window with probability biasPct/100.
type Sampler struct {
	rng     *rand.Rand
	start   time.Time
	end     time.Time
	window  *Window
	biasPct int
}

func NewSampler(rng *rand.Rand, start, end time.Time, window *Window, biasPct int) *Sampler {
	return &Sampler{
		rng:     rng,
		start:   start.UTC(),
		end:     end.UTC(),
		window:  window,
		biasPct: biasPct,
	}
}

func (s *Sampler) Sample() time.Time {
	if s.window == nil {
		return s.uniform()
	}
	return s.weighted()
}

func (s *Sampler) uniform() time.Time {
	span := s.end.Sub(s.start)
	if span <= 0 {
		return s.start
	}
	offset := time.Duration(s.rng.Float64() * float64(span))
	return s.start.Add(offset)
}

func (s *Sampler) weighted() time.Time {
	startDay := s.start.Truncate(24 * time.Hour)
	endDay := s.end.Truncate(24 * time.Hour)
	daySpan := int(endDay.Sub(startDay).Hours() / 24)

	day := startDay.AddDate(0, 0, s.rng.Intn(daySpan+1))
	minute := s.pickMinute()
	second := s.rng.Intn(60)

	t := day.Add(time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)

	// A candidate can leave the range only on the first or last day; clamp
	// to the nearer boundary instead of resampling.
	if t.Before(s.start) {
		return s.start
	}
	if t.After(s.end) {
		return s.end
	}
	return t
}

func (s *Sampler) pickMinute() int {
	w := *s.window
	inBusiness := s.rng.Intn(100)+1 <= s.biasPct

	if inBusiness && w.StartMin < w.EndMin {
		return w.StartMin + s.rng.Intn(w.EndMin-w.StartMin)
	}

	offCount := w.StartMin + (minutesPerDay - w.EndMin)
	if offCount == 0 {
		// Window spans the whole day, there are no off-hours minutes.
		return w.StartMin + s.rng.Intn(w.EndMin-w.StartMin)
	}

	pick := s.rng.Intn(offCount)
	if pick < w.StartMin {
		return pick
	}
	return w.EndMin + (pick - w.StartMin)
}
