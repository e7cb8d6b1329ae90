// Package stats provides the statistical primitives used by trend analysis and alerting.
//
// Every function is total over its input: empty series, zero denominators and
// degenerate spreads produce zero values or empty slices instead of errors.
package stats

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierThreshold is the z-score above which a value is flagged.
const DefaultOutlierThreshold = 3.0

// DataPoint is a single dated observation.
type DataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Interval is a symmetric confidence interval around the mean.
type Interval struct {
	Mean   float64 `json:"mean"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
	Margin float64 `json:"margin"`
}

// Outlier reports the z-score of one value of a series.
type Outlier struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	ZScore    float64 `json:"z_score"`
	IsOutlier bool    `json:"is_outlier"`
}

// Regression is an ordinary least squares fit of value against point index.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// Predict returns the fitted value at index x.
func (r Regression) Predict(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Median returns the middle value, averaging the two middle values for even lengths.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Variance returns the population variance (divides by N).
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(values, nil)
	return variance
}

// StandardDeviation returns the population standard deviation.
func StandardDeviation(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// zScoreFor maps a confidence level to its two-sided normal critical value.
// Levels other than 0.95 and 0.99 fall back to the 90% value.
func zScoreFor(level float64) float64 {
	switch level {
	case 0.95:
		return 1.96
	case 0.99:
		return 2.576
	default:
		return 1.645
	}
}

// ConfidenceInterval returns mean ± z·σ/√n using a normal approximation.
// No small-sample t correction is applied.
func ConfidenceInterval(values []float64, level float64) Interval {
	if len(values) == 0 {
		return Interval{}
	}
	mean := Mean(values)
	margin := zScoreFor(level) * (StandardDeviation(values) / math.Sqrt(float64(len(values))))
	return Interval{
		Mean:   mean,
		Lower:  mean - margin,
		Upper:  mean + margin,
		Margin: margin,
	}
}

// DetectOutliers scores every value against the population mean and deviation and
// flags those whose absolute z-score exceeds threshold. The threshold is used as
// given; callers wanting the conventional cut-off pass DefaultOutlierThreshold.
// A series with zero deviation has no outliers.
func DetectOutliers(values []float64, threshold float64) []Outlier {
	if len(values) == 0 {
		return []Outlier{}
	}

	mean := Mean(values)
	sd := StandardDeviation(values)

	result := make([]Outlier, len(values))
	for i, v := range values {
		z := 0.0
		if sd != 0 {
			z = (v - mean) / sd
		}
		result[i] = Outlier{
			Index:     i,
			Value:     v,
			ZScore:    z,
			IsOutlier: sd != 0 && math.Abs(z) > threshold,
		}
	}
	return result
}

// MovingAverage returns the trailing simple moving average. Each output point
// carries the date of the last point in its window.
func MovingAverage(points []DataPoint, windowSize int) []DataPoint {
	if windowSize <= 0 || len(points) < windowSize {
		return []DataPoint{}
	}

	result := make([]DataPoint, 0, len(points)-windowSize+1)
	var sum float64
	for i, p := range points {
		sum += p.Value
		if i >= windowSize {
			sum -= points[i-windowSize].Value
		}
		if i >= windowSize-1 {
			result = append(result, DataPoint{
				Date:  p.Date,
				Value: sum / float64(windowSize),
			})
		}
	}
	return result
}

// LinearRegression fits value = slope·i + intercept where i is the point index.
// Points are assumed evenly spaced; calendar gaps are ignored.
func LinearRegression(points []DataPoint) Regression {
	n := len(points)
	if n < 2 {
		return Regression{}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = float64(i)
		ys[i] = p.Value
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	// gonum yields NaN when the series has no variance; the fit explains nothing then.
	rSquared := 0.0
	if Variance(ys) != 0 {
		rSquared = stat.RSquared(xs, ys, nil, intercept, slope)
		if math.IsNaN(rSquared) || math.IsInf(rSquared, 0) {
			rSquared = 0
		}
	}

	return Regression{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared,
	}
}

// ForecastFuture extends the regression line periodsAhead steps past the last
// point. Forecast dates advance one day per step from the last point's date and
// predicted values never drop below zero.
func ForecastFuture(points []DataPoint, periodsAhead int) []DataPoint {
	if len(points) == 0 || periodsAhead <= 0 {
		return []DataPoint{}
	}

	reg := LinearRegression(points)
	last := points[len(points)-1]
	lastIndex := float64(len(points) - 1)

	forecast := make([]DataPoint, periodsAhead)
	for i := 1; i <= periodsAhead; i++ {
		forecast[i-1] = DataPoint{
			Date:  last.Date.AddDate(0, 0, i),
			Value: math.Max(0, reg.Predict(lastIndex+float64(i))),
		}
	}
	return forecast
}

// GrowthRate returns the percentage change from the first to the last point.
// Intermediate points do not contribute.
func GrowthRate(points []DataPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	first := points[0].Value
	if first == 0 {
		return 0
	}
	last := points[len(points)-1].Value
	return ((last - first) / first) * 100
}

// Correlation returns the Pearson correlation over the common prefix of both series.
func Correlation(values1, values2 []float64) float64 {
	n := len(values1)
	if len(values2) < n {
		n = len(values2)
	}
	if n == 0 {
		return 0
	}
	a := values1[:n]
	b := values2[:n]
	if StandardDeviation(a) == 0 || StandardDeviation(b) == 0 {
		return 0
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// CoefficientOfVariation returns σ/mean as a percentage.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return (StandardDeviation(values) / mean) * 100
}

// Values extracts the values of a point series.
func Values(points []DataPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
