package engine

import "avax-launch-indexer/internal/domain"

const windowHours = 24

// priceWindow tracks the rolling 24-hour price extremes of one token with a
// fixed ring of hourly buckets. Each bucket holds the high/low of one UTC
// hour; a bucket is reused when its slot comes around again, which is what
// expires data older than the window.
type priceWindow struct {
	buckets [windowHours]windowBucket
}

type windowBucket struct {
	hour int64 // unix seconds, hour start; zero means empty
	high float64
	low  float64
}

// Observe records one traded price at the given timestamp.
func (w *priceWindow) Observe(price float64, ts int64) {
	if price <= 0 {
		return
	}
	hour := domain.HourBucket(ts)
	b := &w.buckets[(hour/3600)%windowHours]
	if b.hour != hour {
		b.hour = hour
		b.high = price
		b.low = price
		return
	}
	if price > b.high {
		b.high = price
	}
	if price < b.low {
		b.low = price
	}
}

// Extremes returns the high and low across buckets within 24 hours of now.
// ok is false when no bucket in range holds data.
func (w *priceWindow) Extremes(now int64) (high, low float64, ok bool) {
	cutoff := domain.HourBucket(now) - (windowHours-1)*3600
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.hour == 0 || b.hour < cutoff {
			continue
		}
		if !ok {
			high, low, ok = b.high, b.low, true
			continue
		}
		if b.high > high {
			high = b.high
		}
		if b.low < low {
			low = b.low
		}
	}
	return high, low, ok
}
