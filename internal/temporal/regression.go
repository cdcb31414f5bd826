package temporal

import (
	"fmt"
	"math"
)

// Regress fits ordinary least squares y = a + b*x and returns the slope b
// with the two-sided p-value of the t-test on b. It is a pure function: the
// analyzer stays free of the numerical details.
func Regress(xs, ys []float64) (slope, pValue float64, err error) {
	n := len(xs)
	if n != len(ys) {
		return 0, 0, fmt.Errorf("regress: mismatched lengths %d and %d", n, len(ys))
	}
	if n < 3 {
		return 0, 0, fmt.Errorf("regress: need at least 3 points, got %d", n)
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, 0, fmt.Errorf("regress: no variance in x")
	}

	slope = sxy / sxx
	intercept := meanY - slope*meanX

	// Residual sum of squares
	var sse float64
	for i := 0; i < n; i++ {
		r := ys[i] - (intercept + slope*xs[i])
		sse += r * r
	}

	df := float64(n - 2)
	se := math.Sqrt((sse / df) / sxx)
	if se == 0 {
		// Perfect fit: any nonzero slope is trivially significant
		if slope == 0 {
			return 0, 1, nil
		}
		return slope, 0, nil
	}

	t := slope / se
	pValue = studentTTwoSided(t, df)
	return slope, pValue, nil
}

// studentTTwoSided returns P(|T| >= |t|) for a Student-t distribution with
// df degrees of freedom, via the regularized incomplete beta function.
func studentTTwoSided(t, df float64) float64 {
	x := df / (df + t*t)
	return regIncBeta(df/2, 0.5, x)
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued fraction expansion (Lentz's method).
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function
func betaCF(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-300
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		// Even step
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		// Odd step
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}

	return h
}
