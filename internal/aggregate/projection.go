package aggregate

import "math"

// Growth-rate bounds applied before extrapolating.
const (
	MinGrowthRate = -0.10
	MaxGrowthRate = 0.30
)

// DefaultHorizon is the number of projected years.
const DefaultHorizon = 5

// Band multipliers applied per projected year.
const (
	optimisticFactor   = 1.15
	conservativeFactor = 0.85
)

// Point is one historical year of a series.
type Point struct {
	Year  int `json:"year"`
	Value int `json:"value"`
}

// ProjectionPoint is one projected year.
type ProjectionPoint struct {
	Year         int `json:"year"`
	Projected    int `json:"projected"`
	Optimistic   int `json:"optimistic"`
	Conservative int `json:"conservative"`
}

// Projection is the output of Project.
type Projection struct {
	Rate     float64           `json:"rate"`     // Clamped annual growth rate used
	Baseline float64           `json:"baseline"` // Mean of the trailing non-zero years
	Points   []ProjectionPoint `json:"points"`
}

// AnnualSeries extracts the per-year record counts from a yearly series.
func AnnualSeries(points []YearlyPoint) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Year: p.Year, Value: p.Annual}
	}
	return out
}

// Project extrapolates history (ascending by year) horizon years past its
// last year. The growth rate is the mean year-over-year change across the
// last five non-zero values, clamped to [MinGrowthRate, MaxGrowthRate]; the
// baseline is the mean of the last three non-zero values. Every projected
// value is floored at 1.
//
// An empty history, or one without non-zero values, yields no points.
func Project(history []Point, horizon int) Projection {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	proj := Projection{Points: []ProjectionPoint{}}
	if len(history) == 0 {
		return proj
	}

	var nonZero []int
	for _, p := range history {
		if p.Value > 0 {
			nonZero = append(nonZero, p.Value)
		}
	}
	if len(nonZero) == 0 {
		return proj
	}

	proj.Rate = growthRate(tail(nonZero, 5))
	proj.Baseline = mean(tail(nonZero, 3))

	lastYear := history[len(history)-1].Year
	for d := 1; d <= horizon; d++ {
		projected := proj.Baseline * math.Pow(1+proj.Rate, float64(d))
		rounded := math.Round(projected)
		proj.Points = append(proj.Points, ProjectionPoint{
			Year:         lastYear + d,
			Projected:    floorOne(rounded),
			Optimistic:   floorOne(math.Round(rounded * math.Pow(optimisticFactor, float64(d)))),
			Conservative: floorOne(math.Round(rounded * math.Pow(conservativeFactor, float64(d)))),
		})
	}
	return proj
}

// growthRate is the clamped mean year-over-year change of values.
// Fewer than two values give 0.
func growthRate(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(values); i++ {
		sum += float64(values[i]-values[i-1]) / float64(values[i-1])
	}
	rate := sum / float64(len(values)-1)
	return math.Max(MinGrowthRate, math.Min(MaxGrowthRate, rate))
}

func tail(values []int, n int) []int {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func floorOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
