package analytics

import (
	"math"

	"github.com/agentroi/runrate/pkg/domain/stats"
)

const (
	shortWindow = 7
	longWindow  = 30

	// MinReliablePoints is the history length below which forecasts are low confidence.
	MinReliablePoints = 7

	// DefaultLookbackDays is the trailing window of snapshots fed to the analyzer.
	DefaultLookbackDays = 90

	// stableSlopeRatio is the slope, relative to the mean, treated as flat.
	stableSlopeRatio = 0.01
)

// TrendDirection indicates the direction of a fitted trend.
type TrendDirection string

const (
	// TrendAccelerating indicates the metric is increasing.
	TrendAccelerating TrendDirection = "accelerating"
	// TrendDecelerating indicates the metric is decreasing.
	TrendDecelerating TrendDirection = "decelerating"
	// TrendStable indicates the metric is relatively constant.
	TrendStable TrendDirection = "stable"
)

// Quality classifies how well the regression line explains the history.
type Quality string

const (
	QualityStrong   Quality = "strong"
	QualityModerate Quality = "moderate"
	QualityWeak     Quality = "weak"
)

// ClassifyQuality maps R² onto the advisory bands shown next to forecasts.
func ClassifyQuality(rSquared float64) Quality {
	switch {
	case rSquared > 0.8:
		return QualityStrong
	case rSquared >= 0.5:
		return QualityModerate
	default:
		return QualityWeak
	}
}

// Advice returns the advisory text consumers render for the band.
func (q Quality) Advice() string {
	switch q {
	case QualityStrong:
		return "Strong fit: the forecast is reliable."
	case QualityModerate:
		return "Moderate fit: treat the forecast as indicative."
	default:
		return "Weak fit: more data is needed before relying on the forecast."
	}
}

// Statistics summarises the historical series.
type Statistics struct {
	Mean                   float64 `json:"mean"`
	StandardDeviation      float64 `json:"standard_deviation"`
	GrowthRate             float64 `json:"growth_rate"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// TrendData is the full trend view for one metric.
type TrendData struct {
	Metric             Metric            `json:"metric"`
	Historical         []stats.DataPoint `json:"historical"`
	Forecast           []stats.DataPoint `json:"forecast"`
	MovingAverage7Day  []stats.DataPoint `json:"moving_average_7_day,omitempty"`
	MovingAverage30Day []stats.DataPoint `json:"moving_average_30_day,omitempty"`
	Regression         stats.Regression  `json:"regression"`
	Statistics         Statistics        `json:"statistics"`
}

// Quality returns the R² band of the regression.
func (t TrendData) Quality() Quality {
	return ClassifyQuality(t.Regression.RSquared)
}

// LowConfidence reports whether the history is too short to trust the forecast.
// The forecast is still produced.
func (t TrendData) LowConfidence() bool {
	return len(t.Historical) < MinReliablePoints
}

// IsEmpty reports whether there was no history to analyse.
func (t TrendData) IsEmpty() bool {
	return len(t.Historical) == 0
}

// Direction classifies the regression slope relative to the series mean.
func (t TrendData) Direction() TrendDirection {
	if t.IsEmpty() || t.Regression.Slope == 0 {
		return TrendStable
	}
	scale := math.Abs(t.Statistics.Mean)
	if scale == 0 {
		scale = 1
	}
	ratio := t.Regression.Slope / scale
	switch {
	case ratio > stableSlopeRatio:
		return TrendAccelerating
	case ratio < -stableSlopeRatio:
		return TrendDecelerating
	default:
		return TrendStable
	}
}

// ConfidenceBand returns the confidence interval of the historical values.
func (t TrendData) ConfidenceBand(level float64) stats.Interval {
	return stats.ConfidenceInterval(stats.Values(t.Historical), level)
}

// Analyze builds the trend for metric over an already filtered snapshot series.
// An empty series yields zero statistics and no forecast.
func Analyze(snapshots []Snapshot, metric Metric, forecastDays int) TrendData {
	historical := ToDataPoints(snapshots, metric)
	data := TrendData{
		Metric:     metric,
		Historical: historical,
		Forecast:   []stats.DataPoint{},
	}
	if len(historical) == 0 {
		return data
	}

	values := stats.Values(historical)
	data.Regression = stats.LinearRegression(historical)
	data.Forecast = stats.ForecastFuture(historical, forecastDays)
	if len(historical) >= shortWindow {
		data.MovingAverage7Day = stats.MovingAverage(historical, shortWindow)
	}
	if len(historical) >= longWindow {
		data.MovingAverage30Day = stats.MovingAverage(historical, longWindow)
	}
	data.Statistics = Statistics{
		Mean:                   stats.Mean(values),
		StandardDeviation:      stats.StandardDeviation(values),
		GrowthRate:             stats.GrowthRate(historical),
		CoefficientOfVariation: stats.CoefficientOfVariation(values),
	}
	return data
}
