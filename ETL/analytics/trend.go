package analytics

import (
	"fmt"
	"math"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// DataPoint is the total headcount of one month
type DataPoint struct {
	X      float64 `json:"x"` // month number, continuing past 12 into the next year
	Y      float64 `json:"y"` // total headcount
	Period string  `json:"period"`
}

// RegressionResult holds a least-squares fit y = A*x + B
type RegressionResult struct {
	A          float64     `json:"slope"`
	B          float64     `json:"intercept"`
	R          float64     `json:"r"`
	R2         float64     `json:"r2"`
	DataPoints []DataPoint `json:"points"`
}

// ForecastPoint is a predicted monthly total with its confidence interval
type ForecastPoint struct {
	Period        string  `json:"period"`
	ForecastValue float64 `json:"forecast"`
	CILower       float64 `json:"ci_lower"`
	CIUpper       float64 `json:"ci_upper"`
}

// TrendConfig controls the forecast
type TrendConfig struct {
	ForecastMonths  int
	ConfidenceLevel float64 // 0.90, 0.95 or 0.99
	MinR2Threshold  float64
}

// DefaultTrendConfig returns the forecast defaults
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		ForecastMonths:  3,
		ConfidenceLevel: 0.95,
		MinR2Threshold:  0.30,
	}
}

// Trend is the monthly series of a year with its fit and forecast.
// Fit is nil when fewer than two months have data.
type Trend struct {
	Year      int               `json:"anio"`
	Points    []DataPoint       `json:"points"`
	Fit       *RegressionResult `json:"fit,omitempty"`
	Forecasts []ForecastPoint   `json:"forecasts"`
	Reliable  bool              `json:"reliable"`
}

// MonthlyPoints turns results indexed by month (January first) into data
// points. Nil and empty results are skipped.
func MonthlyPoints(results []*models.Result) []DataPoint {
	points := make([]DataPoint, 0, len(results))
	for i, res := range results {
		if res.Empty() {
			continue
		}
		points = append(points, DataPoint{
			X:      float64(i + 1),
			Y:      float64(res.TotalActive()),
			Period: fmt.Sprintf("%d/%d", i+1, res.Period.Year),
		})
	}
	return points
}

// BuildTrend fits the points and forecasts the following months
func BuildTrend(year int, points []DataPoint, cfg TrendConfig) Trend {
	t := Trend{Year: year, Points: points, Forecasts: []ForecastPoint{}}
	fit, err := LinearRegression(points)
	if err != nil {
		return t
	}
	t.Fit = fit
	t.Reliable = fit.R2 >= cfg.MinR2Threshold
	t.Forecasts = GenerateForecasts(fit, year, cfg.ForecastMonths, cfg.ConfidenceLevel)
	return t
}

// LinearRegression fits y = A*x + B by least squares
func LinearRegression(points []DataPoint) (*RegressionResult, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("linear regression needs at least 2 points, got %d", len(points))
	}

	// a = (n*sum(xy) - sum(x)*sum(y)) / (n*sum(x^2) - sum(x)^2)
	// b = (sum(y) - a*sum(x)) / n
	n := float64(len(points))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumX2 += p.X * p.X
		sumY2 += p.Y * p.Y
	}

	denominator := n*sumX2 - sumX*sumX
	if math.Abs(denominator) < 1e-10 {
		return nil, fmt.Errorf("all x values are equal, slope is undefined")
	}
	a := (n*sumXY - sumX*sumY) / denominator
	b := (sumY - a*sumX) / n

	var r float64
	rDen := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if math.Abs(rDen) >= 1e-10 {
		r = (n*sumXY - sumX*sumY) / rDen
	}

	return &RegressionResult{
		A:          RoundToThousandth(a),
		B:          RoundToThousandth(b),
		R:          RoundToThousandth(r),
		R2:         RoundToThousandth(r * r),
		DataPoints: points,
	}, nil
}

// Predict evaluates the fit at x
func Predict(result *RegressionResult, x float64) float64 {
	return RoundToThousandth(result.A*x + result.B)
}

// ConfidenceInterval returns the prediction interval at x. With two points
// there are no residual degrees of freedom and the interval collapses.
func ConfidenceInterval(result *RegressionResult, x float64, confidenceLevel float64) (float64, float64) {
	n := float64(len(result.DataPoints))
	yPred := Predict(result, x)
	if n <= 2 {
		return yPred, yPred
	}

	var meanX float64
	for _, p := range result.DataPoints {
		meanX += p.X
	}
	meanX /= n

	var sumSqDevX, sumSqResiduals float64
	for _, p := range result.DataPoints {
		res := p.Y - Predict(result, p.X)
		sumSqDevX += (p.X - meanX) * (p.X - meanX)
		sumSqResiduals += res * res
	}
	standardError := math.Sqrt(sumSqResiduals / (n - 2))

	// t is approximated by 2 for the 95% level
	tStat := 2.0
	switch confidenceLevel {
	case 0.99:
		tStat = 2.58
	case 0.90:
		tStat = 1.64
	}

	margin := tStat * standardError * math.Sqrt(1+1/n+(x-meanX)*(x-meanX)/sumSqDevX)
	return RoundToThousandth(yPred - margin), RoundToThousandth(yPred + margin)
}

// GenerateForecasts predicts the months that follow the last data point
func GenerateForecasts(result *RegressionResult, year int, monthsAhead int, confidenceLevel float64) []ForecastPoint {
	if monthsAhead <= 0 {
		return []ForecastPoint{}
	}
	maxX := 0.0
	for _, p := range result.DataPoints {
		maxX = math.Max(maxX, p.X)
	}

	forecasts := make([]ForecastPoint, monthsAhead)
	for i := range forecasts {
		x := maxX + float64(i+1)
		lower, upper := ConfidenceInterval(result, x, confidenceLevel)
		m := int(x)
		forecasts[i] = ForecastPoint{
			Period:        fmt.Sprintf("%d/%d", (m-1)%12+1, year+(m-1)/12),
			ForecastValue: Predict(result, x),
			CILower:       lower,
			CIUpper:       upper,
		}
	}
	return forecasts
}
