package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// quadPoints is the Gauss-Legendre order used for the non-central t CDF.
const quadPoints = 256

// TTestIndPower is the power of a two-sided, two-sample independent t-test
// with equal variances.
type TTestIndPower struct{}

// Power returns the probability of rejecting H0 for standardized effect size
// effect with nobs1 observations in the first group and nobs1*ratio in the
// second, at significance alpha.
func (TTestIndPower) Power(effect, nobs1, alpha, ratio float64) float64 {
	nobs2 := nobs1 * ratio
	df := nobs1 + nobs2 - 2
	nc := effect * math.Sqrt(nobs1*nobs2/(nobs1+nobs2))
	crit := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(1 - alpha/2)
	return 1 - nonCentralTCDF(crit, df, nc) + nonCentralTCDF(-crit, df, nc)
}

// SolveSampleSize returns the (fractional) first-group size needed to reach
// power. Callers usually round up or to nearest for reporting.
func (p TTestIndPower) SolveSampleSize(effect, alpha, power, ratio float64) (float64, error) {
	switch {
	case !(effect > 0):
		return 0, fmt.Errorf("effect size must be positive, got %g", effect)
	case !(alpha > 0 && alpha < 1):
		return 0, fmt.Errorf("alpha must be in (0, 1), got %g", alpha)
	case !(power > alpha && power < 1):
		return 0, fmt.Errorf("power must be in (alpha, 1), got %g", power)
	case !(ratio > 0):
		return 0, fmt.Errorf("ratio must be positive, got %g", ratio)
	}

	// Two observations per group is the smallest design with df > 0.
	lo, hi := 2.0, 4.0
	for p.Power(effect, hi, alpha, ratio) < power {
		lo = hi
		hi *= 2
		if hi > 1e7 {
			return 0, fmt.Errorf("no sample size below %g reaches power %g", hi, power)
		}
	}
	for i := 0; i < 100 && hi-lo > 1e-9; i++ {
		mid := (lo + hi) / 2
		if p.Power(effect, mid, alpha, ratio) < power {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// nonCentralTCDF evaluates P(T <= t) for a non-central t with df degrees of
// freedom and non-centrality nc by integrating the normal CDF against the
// chi-square density of the denominator.
func nonCentralTCDF(t, df, nc float64) float64 {
	chi := distuv.ChiSquared{K: df}
	upper := df + 10*math.Sqrt(2*df) + 20
	f := func(x float64) float64 {
		return distuv.UnitNormal.CDF(t*math.Sqrt(x/df)-nc) * chi.Prob(x)
	}
	return quad.Fixed(f, 0, upper, quadPoints, nil, 1)
}
