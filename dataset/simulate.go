package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// GenerateX returns n evenly spaced feature values starting at start
func GenerateX(n int, start, step float64) []float64 {
	x := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x = append(x, start+step*float64(i))
	}
	return x
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) Scale(c float64) Series {
	floats.Scale(c, s)
	return s
}

// SetConst overwrites the values in the index range [start, end)
func (s Series) SetConst(val float64, start, end int) Series {
	for i := max(start, 0); i < end && i < len(s); i++ {
		s[i] = val
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLine evaluates intercept + slope * x for every feature value
func GenerateLine(x []float64, intercept, slope float64) Series {
	y := make([]float64, 0, len(x))
	for _, v := range x {
		y = append(y, intercept+slope*v)
	}
	return Series(y)
}

// GenerateNoise draws n normally distributed values scaled by noiseScale. A nil rng uses the
// global source.
func GenerateNoise(n int, noiseScale float64, rng *rand.Rand) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		var v float64
		if rng == nil {
			v = rand.NormFloat64()
		} else {
			v = rng.NormFloat64()
		}
		y = append(y, v*noiseScale)
	}
	return Series(y)
}
