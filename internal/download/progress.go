package download

import "time"

// DefaultProgressInterval is the minimum wall time between progress events.
const DefaultProgressInterval = 500 * time.Millisecond

// sampler rate-limits progress reports and measures throughput between them.
type sampler struct {
	id        string
	total     *int64
	interval  time.Duration
	lastTime  time.Time
	lastBytes int64
}

func newSampler(id string, total *int64, interval time.Duration, start time.Time) *sampler {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &sampler{
		id:       id,
		total:    total,
		interval: interval,
		lastTime: start,
	}
}

// observe records the cumulative byte count and returns a progress sample if
// at least one interval has elapsed since the previous sample.
func (s *sampler) observe(downloaded int64, now time.Time) (Progress, bool) {
	elapsed := now.Sub(s.lastTime)
	if elapsed < s.interval {
		return Progress{}, false
	}

	p := computeProgress(s.id, downloaded, s.total, downloaded-s.lastBytes, elapsed)
	s.lastTime = now
	s.lastBytes = downloaded
	return p, true
}

// computeProgress derives percent, speed and ETA. The ETA stays nil unless the
// total is known and the speed is positive.
func computeProgress(id string, downloaded int64, total *int64, delta int64, elapsed time.Duration) Progress {
	p := Progress{
		ID:              id,
		BytesDownloaded: downloaded,
		TotalBytes:      total,
	}

	if elapsed > 0 && delta > 0 {
		p.SpeedBytesPerSec = float64(delta) / elapsed.Seconds()
	}

	if total == nil {
		return p
	}

	if *total > 0 {
		p.Percent = float64(downloaded) / float64(*total) * 100
		if p.Percent > 100 {
			p.Percent = 100
		}
	}

	if p.SpeedBytesPerSec > 0 {
		remaining := *total - downloaded
		if remaining < 0 {
			remaining = 0
		}
		eta := float64(remaining) / p.SpeedBytesPerSec
		p.ETASeconds = &eta
	}

	return p
}
