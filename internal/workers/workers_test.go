package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Parallel()

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per CPU", 1.0, 0, availableCPU},
		{"two per CPU", 2.0, 0, availableCPU * 2},
		{"limit applied", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestForIO(t *testing.T) {
	t.Parallel()

	got := ForIO(4)
	if got < 1 || got > 4 {
		t.Errorf("ForIO(4) = %d, want between 1 and 4", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured int
		want       int
	}{
		{"explicit", 3, 3},
		{"negative falls back", -1, DefaultScanWorkers},
		{"auto", 0, ForIO(MaxScanWorkers)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Resolve(tt.configured); got != tt.want {
				t.Errorf("Resolve(%d) = %d, want %d", tt.configured, got, tt.want)
			}
		})
	}
}
