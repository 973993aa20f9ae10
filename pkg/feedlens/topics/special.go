package topics

import (
	"math"
	"math/rand/v2"
)

// digamma returns ψ(x) for x > 0 using the recurrence to shift x above 6
// and the asymptotic series from there.
func digamma(x float64) float64 {
	var result float64
	for x < 6 {
		result -= 1 / x
		x++
	}
	f := 1 / (x * x)
	series := f * (-1.0/12 + f*(1.0/120+f*(-1.0/252+f*(1.0/240+f*(-1.0/132)))))
	return result + math.Log(x) - 0.5/x + series
}

// sampleGamma draws from Gamma(shape, scale) with the Marsaglia-Tsang method.
func sampleGamma(r *rand.Rand, shape, scale float64) float64 {
	if shape < 1 {
		u := r.Float64()
		return sampleGamma(r, shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := r.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// newRand returns the generator for one seeded stream.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

func sqDist(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func finiteMatrix(m [][]float64) bool {
	for _, row := range m {
		for _, x := range row {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}
