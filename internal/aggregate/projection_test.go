package aggregate

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProject_ClampsRunawayGrowth(t *testing.T) {
	// 1000% growth every year.
	history := []Point{{2020, 1}, {2021, 11}, {2022, 121}, {2023, 1331}}

	p := Project(history, 5)
	if p.Rate > MaxGrowthRate {
		t.Errorf("Rate = %v, want <= %v", p.Rate, MaxGrowthRate)
	}
	if p.Rate != MaxGrowthRate {
		t.Errorf("Rate = %v, want clamp to %v", p.Rate, MaxGrowthRate)
	}
}

func TestProject_ClampsDecline(t *testing.T) {
	history := []Point{{2020, 100}, {2021, 50}, {2022, 10}}
	if p := Project(history, 1); p.Rate != MinGrowthRate {
		t.Errorf("Rate = %v, want %v", p.Rate, MinGrowthRate)
	}
}

func TestProject_FlatSeries(t *testing.T) {
	history := []Point{{2020, 20}, {2021, 20}, {2022, 20}}

	want := Projection{
		Rate:     0,
		Baseline: 20,
		Points: []ProjectionPoint{
			{Year: 2023, Projected: 20, Optimistic: 23, Conservative: 17},
			{Year: 2024, Projected: 20, Optimistic: 26, Conservative: 14},
		},
	}
	if diff := cmp.Diff(want, Project(history, 2)); diff != "" {
		t.Errorf("Project() mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_TrailingWindows(t *testing.T) {
	// Zeros are skipped; only the last five non-zero values drive the rate
	// and the last three the baseline.
	history := []Point{
		{2015, 1000}, {2016, 0}, {2017, 10}, {2018, 11}, {2019, 0},
		{2020, 12}, {2021, 13}, {2022, 14},
	}

	p := Project(history, 1)
	if math.Abs(p.Baseline-13) > 1e-9 {
		t.Errorf("Baseline = %v, want 13", p.Baseline)
	}
	if p.Rate <= 0 || p.Rate > 0.1 {
		t.Errorf("Rate = %v, want small positive", p.Rate)
	}
	if len(p.Points) != 1 || p.Points[0].Year != 2023 {
		t.Errorf("Points = %+v", p.Points)
	}
}

func TestProject_DegenerateInputs(t *testing.T) {
	if p := Project(nil, 5); len(p.Points) != 0 {
		t.Errorf("nil history gave %d points", len(p.Points))
	}
	if p := Project([]Point{{2020, 0}, {2021, 0}}, 5); len(p.Points) != 0 {
		t.Errorf("all-zero history gave %d points", len(p.Points))
	}

	// A single non-zero year projects flat and floors at 1.
	p := Project([]Point{{2025, 1}}, 0)
	if len(p.Points) != DefaultHorizon || p.Rate != 0 {
		t.Fatalf("single point projection = %+v", p)
	}
	for _, pt := range p.Points {
		if pt.Projected < 1 || pt.Optimistic < 1 || pt.Conservative < 1 {
			t.Errorf("point below floor: %+v", pt)
		}
	}
}

func TestAnnualSeries(t *testing.T) {
	got := AnnualSeries([]YearlyPoint{{Year: 2020, Annual: 2}, {Year: 2021, Annual: 0}})
	if diff := cmp.Diff([]Point{{2020, 2}, {2021, 0}}, got); diff != "" {
		t.Errorf("AnnualSeries() mismatch (-want +got):\n%s", diff)
	}
}
