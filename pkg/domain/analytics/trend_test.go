package analytics

import (
	"math"
	"testing"
	"time"
)

var day0 = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func linearSnapshots(n int, start, step float64) []Snapshot {
	out := make([]Snapshot, n)
	for i := 0; i < n; i++ {
		v := start + step*float64(i)
		out[i] = Snapshot{
			Date:                day0.AddDate(0, 0, i),
			TotalTimeSavedHours: v,
			TotalCostSavings:    v * 10,
			TotalStudies:        i,
			DataSource:          DataSourceReal,
		}
	}
	return out
}

func TestAnalyze_Empty(t *testing.T) {
	data := Analyze(nil, MetricTimeSaved, 30)
	if !data.IsEmpty() {
		t.Fatalf("expected empty trend")
	}
	if len(data.Forecast) != 0 {
		t.Errorf("Forecast = %v, want empty", data.Forecast)
	}
	if data.Statistics != (Statistics{}) {
		t.Errorf("Statistics = %+v, want zero", data.Statistics)
	}
	if data.MovingAverage7Day != nil || data.MovingAverage30Day != nil {
		t.Errorf("moving averages should be absent")
	}
}

func TestAnalyze_LinearHistory(t *testing.T) {
	data := Analyze(linearSnapshots(10, 10, 10), MetricTimeSaved, 5)

	if len(data.Historical) != 10 {
		t.Fatalf("len(Historical) = %d, want 10", len(data.Historical))
	}
	if math.Abs(data.Regression.Slope-10) > 1e-9 {
		t.Errorf("Slope = %v, want 10", data.Regression.Slope)
	}
	if data.Quality() != QualityStrong {
		t.Errorf("Quality() = %v, want strong", data.Quality())
	}
	if len(data.Forecast) != 5 {
		t.Errorf("len(Forecast) = %d, want 5", len(data.Forecast))
	}
	if math.Abs(data.Forecast[0].Value-110) > 1e-9 {
		t.Errorf("Forecast[0] = %v, want 110", data.Forecast[0].Value)
	}
	if len(data.MovingAverage7Day) != 4 {
		t.Errorf("len(MovingAverage7Day) = %d, want 4", len(data.MovingAverage7Day))
	}
	if data.MovingAverage30Day != nil {
		t.Errorf("MovingAverage30Day should be absent with 10 points")
	}
	if math.Abs(data.Statistics.GrowthRate-900) > 1e-9 {
		t.Errorf("GrowthRate = %v, want 900", data.Statistics.GrowthRate)
	}
	if data.LowConfidence() {
		t.Errorf("10 points should not be low confidence")
	}
	if data.Direction() != TrendAccelerating {
		t.Errorf("Direction() = %v, want accelerating", data.Direction())
	}
}

func TestAnalyze_MetricSelection(t *testing.T) {
	snaps := linearSnapshots(3, 1, 1)

	tests := []struct {
		metric Metric
		want   []float64
	}{
		{MetricTimeSaved, []float64{1, 2, 3}},
		{MetricCostSavings, []float64{10, 20, 30}},
		{MetricStudyCount, []float64{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			data := Analyze(snaps, tt.metric, 0)
			for i, p := range data.Historical {
				if p.Value != tt.want[i] {
					t.Errorf("Historical[%d] = %v, want %v", i, p.Value, tt.want[i])
				}
			}
		})
	}
}

func TestAnalyze_ThirtyDayAverage(t *testing.T) {
	data := Analyze(linearSnapshots(45, 1, 0.5), MetricTimeSaved, 7)
	if len(data.MovingAverage30Day) != 16 {
		t.Errorf("len(MovingAverage30Day) = %d, want 16", len(data.MovingAverage30Day))
	}
}

func TestAnalyze_LowConfidenceStillForecasts(t *testing.T) {
	data := Analyze(linearSnapshots(3, 5, 1), MetricTimeSaved, 4)
	if !data.LowConfidence() {
		t.Errorf("3 points should be low confidence")
	}
	if len(data.Forecast) != 4 {
		t.Errorf("len(Forecast) = %d, want 4", len(data.Forecast))
	}
}

func TestToDataPoints_AggregatesSameDay(t *testing.T) {
	snaps := []Snapshot{
		{Date: day0.AddDate(0, 0, 1), AgentID: "a", TotalTimeSavedHours: 3},
		{Date: day0, AgentID: "a", TotalTimeSavedHours: 1},
		{Date: day0.Add(5 * time.Hour), AgentID: "b", TotalTimeSavedHours: 2, DataSource: DataSourceSynthetic},
	}
	points := ToDataPoints(snaps, MetricTimeSaved)
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Value != 3 || points[1].Value != 3 {
		t.Errorf("points = %+v, want [3 3]", points)
	}
	if !points[0].Date.Equal(day0) {
		t.Errorf("first date = %v, want %v", points[0].Date, day0)
	}
}

func TestFilter(t *testing.T) {
	snaps := []Snapshot{
		{AgentID: "a", Division: "ops", Date: day0},
		{AgentID: "b", Division: "ops", Date: day0.AddDate(0, 0, 5)},
		{AgentID: "c", Division: "sales", Date: day0.AddDate(0, 0, 10)},
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 3},
		{"agent", Filter{AgentID: "b"}, 1},
		{"division", Filter{Division: "ops"}, 2},
		{"since", Filter{Since: day0.AddDate(0, 0, 4)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.filter.Apply(snaps)); got != tt.want {
				t.Errorf("Apply() returned %d snapshots, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyQuality(t *testing.T) {
	tests := []struct {
		r2   float64
		want Quality
	}{
		{0.95, QualityStrong},
		{0.8, QualityModerate},
		{0.5, QualityModerate},
		{0.49, QualityWeak},
		{0, QualityWeak},
	}

	for _, tt := range tests {
		if got := ClassifyQuality(tt.r2); got != tt.want {
			t.Errorf("ClassifyQuality(%v) = %v, want %v", tt.r2, got, tt.want)
		}
	}
}

func TestTrendData_Direction(t *testing.T) {
	if got := Analyze(linearSnapshots(10, 100, -10), MetricTimeSaved, 0).Direction(); got != TrendDecelerating {
		t.Errorf("declining Direction() = %v, want decelerating", got)
	}
	if got := Analyze(linearSnapshots(10, 100, 0), MetricTimeSaved, 0).Direction(); got != TrendStable {
		t.Errorf("flat Direction() = %v, want stable", got)
	}
}

func TestMetric_IsValid(t *testing.T) {
	for _, m := range Metrics() {
		if !m.IsValid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if Metric("fte").IsValid() {
		t.Errorf("fte should not be a trend metric")
	}
}
