package optimizer

import "testing"

func TestRecommendDifficultyAlwaysAtLeastOne(t *testing.T) {
	hashRates := []float64{0, 0.5, 3.3, 25.5, 120, 9999}
	for intensity := 1; intensity <= 10; intensity++ {
		for _, hr := range hashRates {
			rec := Recommend(Telemetry{HashRate: hr}, Options{Intensity: intensity, MaxThreads: 16})
			if rec.TargetDifficulty < 1 {
				t.Fatalf("intensity=%d hashRate=%v produced difficulty %d", intensity, hr, rec.TargetDifficulty)
			}
			if rec.TargetThreads < 1 || rec.TargetThreads > 16 {
				t.Fatalf("intensity=%d hashRate=%v produced threads %d outside [1,16]", intensity, hr, rec.TargetThreads)
			}
		}
	}
}

func TestRecommendDeterministic(t *testing.T) {
	temp := 65.0
	watts := 220.0
	telemetry := Telemetry{HashRate: 42.5, Temperature: &temp, PowerWatts: &watts}
	opts := Options{Intensity: 7, MaxThreads: 12}

	first := Recommend(telemetry, opts)
	for i := 0; i < 100; i++ {
		if got := Recommend(telemetry, opts); got != first {
			t.Fatalf("recommendation changed between identical calls: %+v vs %+v", got, first)
		}
	}
}

func TestRecommendThreadCeiling(t *testing.T) {
	rec := Recommend(Telemetry{HashRate: 500}, Options{Intensity: 5, MaxThreads: 8})
	if rec.TargetThreads != 8 {
		t.Fatalf("expected ceiling of 8 threads, got %d", rec.TargetThreads)
	}
}

func TestRecommendThermalDerating(t *testing.T) {
	hot := 92.0
	cool := 55.0

	hotRec := Recommend(Telemetry{HashRate: 80, Temperature: &hot}, Options{Intensity: 5, MaxThreads: 32})
	coolRec := Recommend(Telemetry{HashRate: 80, Temperature: &cool}, Options{Intensity: 5, MaxThreads: 32})

	if hotRec.TargetThreads >= coolRec.TargetThreads {
		t.Fatalf("expected hot device to be derated: hot=%d cool=%d", hotRec.TargetThreads, coolRec.TargetThreads)
	}
}

func TestRecommendClampsOutOfRangeOptions(t *testing.T) {
	low := Recommend(Telemetry{HashRate: 40}, Options{Intensity: -3, MaxThreads: 0})
	if low.TargetDifficulty < 1 || low.TargetThreads != 1 {
		t.Fatalf("expected clamped recommendation, got %+v", low)
	}

	high := Recommend(Telemetry{HashRate: 40}, Options{Intensity: 99, MaxThreads: 4})
	sane := Recommend(Telemetry{HashRate: 40}, Options{Intensity: 10, MaxThreads: 4})
	if high != sane {
		t.Fatalf("expected intensity clamp to 10: %+v vs %+v", high, sane)
	}
}

func TestRecommendScalesWithIntensity(t *testing.T) {
	telemetry := Telemetry{HashRate: 100}
	prev := 0
	for intensity := 1; intensity <= 10; intensity++ {
		rec := Recommend(telemetry, Options{Intensity: intensity, MaxThreads: 16})
		if rec.TargetDifficulty < prev {
			t.Fatalf("difficulty decreased at intensity %d: %d < %d", intensity, rec.TargetDifficulty, prev)
		}
		prev = rec.TargetDifficulty
	}
}
