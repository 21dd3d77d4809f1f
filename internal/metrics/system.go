package metrics

import (
	"context"
	"runtime"
	"time"
)

// RunSystemGauges updates uptime and goroutine gauges until ctx is done
func RunSystemGauges(ctx context.Context, m *Metrics, interval time.Duration) {
	if m == nil {
		return
	}
	if interval == 0 {
		interval = 15 * time.Second
	}

	start := time.Now()
	update := func() {
		m.UptimeSeconds.Set(time.Since(start).Seconds())
		m.Goroutines.Set(float64(runtime.NumGoroutine()))
	}
	update()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}
