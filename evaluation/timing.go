package evaluation

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// maxWarmup bounds the number of leading iterations excluded from throughput statistics.
const maxWarmup = 5

// numWarmup is min(5, loggingInterval-1, total-1).
func numWarmup(loggingInterval, total int) int {
	return min(maxWarmup, loggingInterval-1, total-1)
}

// roundTimer holds the timing state of a single evaluation round. Warm-up is counted in
// iterations, rates in images.
type roundTimer struct {
	clock       clock.Clock
	total       int
	totalImages int
	numWarmup   int

	start        time.Time
	totalCompute time.Duration
	// images processed so far, and before the steady state began
	images       int
	warmupImages int
	// compute seconds of each steady-state iteration
	latencies []float64
}

func newRoundTimer(clk clock.Clock, loggingInterval, total, totalImages int) *roundTimer {
	return &roundTimer{
		clock:       clk,
		total:       total,
		totalImages: totalImages,
		numWarmup:   numWarmup(loggingInterval, total),
		start:       clk.Now(),
	}
}

// beginIteration restarts the measurement when the warm-up iterations are over.
func (rt *roundTimer) beginIteration(idx int) {
	if idx == rt.numWarmup {
		rt.start = rt.clock.Now()
		rt.totalCompute = 0
		rt.warmupImages = rt.images
		rt.latencies = rt.latencies[:0]
	}
}

// endIteration records that an iteration over n images finished.
func (rt *roundTimer) endIteration(n int) {
	rt.images += n
}

// timeCompute runs fn and adds its duration to the compute time when it succeeds.
func (rt *roundTimer) timeCompute(fn func() error) error {
	startCompute := rt.clock.Now()
	if err := fn(); err != nil {
		return err
	}
	elapsed := rt.clock.Since(startCompute)
	rt.totalCompute += elapsed
	rt.latencies = append(rt.latencies, elapsed.Seconds())
	return nil
}

// progress returns the steady-state seconds per image so far and the estimated time left for
// the round.
func (rt *roundTimer) progress() (float64, time.Duration) {
	duration := rt.clock.Since(rt.start).Seconds()
	secondsPerImg := duration / float64(rt.steadyImages())
	etaSeconds := max(int(secondsPerImg*float64(rt.totalImages-rt.warmupImages)-duration), 0)
	return secondsPerImg, time.Duration(etaSeconds) * time.Second
}

// steadyImages is the number of images the rates are divided by.
func (rt *roundTimer) steadyImages() int {
	return rt.images - rt.warmupImages
}

func (rt *roundTimer) elapsed() time.Duration {
	return rt.clock.Since(rt.start)
}

// formatTimedelta renders whole seconds of d as "H:MM:SS", prefixed with "N day(s), " past a day.
func formatTimedelta(d time.Duration) string {
	seconds := int64(d / time.Second)
	days := seconds / 86400
	seconds %= 86400
	clockStr := fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	switch days {
	case 0:
		return clockStr
	case 1:
		return "1 day, " + clockStr
	default:
		return fmt.Sprintf("%d days, %s", days, clockStr)
	}
}
