// Package optimizer computes mining parameter recommendations. Recommend is
// a pure function: identical inputs always produce identical output, and no
// state or I/O is involved, so callers may invoke it from any goroutine.
package optimizer

import "math"

const (
	// hashRatePerThread is the assumed sustained hash rate contribution of
	// one worker thread, in MH/s.
	hashRatePerThread = 5.0

	// thermalDerateCelsius is the temperature above which the thread
	// recommendation is halved.
	thermalDerateCelsius = 80.0

	minIntensity = 1
	maxIntensity = 10
)

// Telemetry is the observed device state the recommendation derives from.
type Telemetry struct {
	HashRate    float64
	Temperature *float64
	PowerWatts  *float64
}

// Options are caller-supplied bounds for a recommendation.
type Options struct {
	// Intensity in [1,10]; values outside the range are clamped.
	Intensity int
	// MaxThreads is the hardware thread ceiling; values below 1 are raised
	// to 1.
	MaxThreads int
}

// Recommendation is the advised parameter set for a device.
type Recommendation struct {
	TargetThreads    int `json:"targetThreads"`
	TargetDifficulty int `json:"targetDifficulty"`
}

// Recommend derives a parameter set from telemetry. TargetDifficulty is
// always at least 1; TargetThreads stays within [1, MaxThreads] and is
// halved when the device runs hot.
func Recommend(t Telemetry, opts Options) Recommendation {
	intensity := clampInt(opts.Intensity, minIntensity, maxIntensity)
	maxThreads := opts.MaxThreads
	if maxThreads < 1 {
		maxThreads = 1
	}

	hashRate := t.HashRate
	if hashRate < 0 {
		hashRate = 0
	}

	threads := int(math.Round(hashRate / hashRatePerThread))
	threads = clampInt(threads, 1, maxThreads)
	if t.Temperature != nil && *t.Temperature > thermalDerateCelsius {
		threads = clampInt(threads/2, 1, maxThreads)
	}

	difficulty := int(math.Floor(hashRate * float64(intensity) / 20.0))
	if difficulty < 1 {
		difficulty = 1
	}

	return Recommendation{
		TargetThreads:    threads,
		TargetDifficulty: difficulty,
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
