package topics

import (
	"math"
	"testing"
)

func TestDigamma(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{1, -0.5772156649015329},
		{0.5, -1.9635100260214235},
		{2, 0.42278433509846713},
		{10, 2.251752589066721},
		{0.1, -10.423754940411076},
	}
	for _, tt := range tests {
		if got := digamma(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("digamma(%v) = %.12f, want %.12f", tt.x, got, tt.want)
		}
	}
}

func TestSampleGammaMean(t *testing.T) {
	tests := []struct {
		shape, scale, tol float64
	}{
		{100, 0.01, 0.01},
		{0.5, 2, 0.06},
		{3, 1, 0.06},
	}
	for _, tt := range tests {
		r := newRand(7, 0)
		const n = 20000
		var sum float64
		for i := 0; i < n; i++ {
			x := sampleGamma(r, tt.shape, tt.scale)
			if x < 0 {
				t.Fatalf("negative sample %v", x)
			}
			sum += x
		}
		mean, want := sum/n, tt.shape*tt.scale
		if math.Abs(mean-want) > tt.tol {
			t.Errorf("Gamma(%v, %v) mean = %.4f, want %.4f", tt.shape, tt.scale, mean, want)
		}
	}
}

func TestNewRandDeterministic(t *testing.T) {
	a, b := newRand(42, 3), newRand(42, 3)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed and stream should give the same sequence")
		}
	}
}
