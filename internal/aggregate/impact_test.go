package aggregate

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matsen/citedash/internal/record"
)

func TestHIndex(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   int
	}{
		{"empty", nil, 0},
		{"all zero", []int{0, 0, 0}, 0},
		{"single", []int{5}, 1},
		{"classic", []int{3, 0, 6, 1, 5}, 3},
		{"all large", []int{100, 100, 100}, 3},
		{"ties at h", []int{4, 4, 4, 4, 1}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HIndex(tt.counts); got != tt.want {
				t.Errorf("HIndex(%v) = %d, want %d", tt.counts, got, tt.want)
			}
		})
	}
}

func TestHIndex_OrderIndependentAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		counts := make([]int, rng.Intn(40))
		for i := range counts {
			counts[i] = rng.Intn(60)
		}
		want := HIndex(counts)
		if want < 0 || want > len(counts) {
			t.Fatalf("HIndex(%v) = %d out of [0, %d]", counts, want, len(counts))
		}

		shuffled := append([]int(nil), counts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := HIndex(shuffled); got != want {
			t.Fatalf("HIndex changed under reordering: %d vs %d", got, want)
		}
	}
}

func TestHIndex_DoesNotMutate(t *testing.T) {
	counts := []int{1, 5, 3}
	HIndex(counts)
	if diff := cmp.Diff([]int{1, 5, 3}, counts); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestComputeImpact(t *testing.T) {
	records := []record.Record{
		{CitationCount: 213, Year: 2019, DOI: "10.1029/2019WR025287", EngagementLevel: record.Level3, Watershed: "Global", ReferenceCount: 40},
		{CitationCount: 12, Year: 2021, EngagementLevel: record.Level4, Watershed: "Amazon", ReferenceCount: 10},
		{CitationCount: 3, Year: 2022, EngagementLevel: record.Level1, Watershed: "Amazon"},
		{CitationCount: 0, EngagementLevel: record.Unclassified, Watershed: "Unknown"},
	}

	got := ComputeImpact(records, 0)
	want := Metrics{
		TotalRecords:       4,
		TotalCitations:     228,
		AvgCitations:       57,
		HIndex:             3,
		ImplementationRate: 50,
		MostCited:          213,
		WithDOI:            1,
		HighImpact:         1,
		Recent:             2,
		Watersheds:         2,
		TotalReferences:    50,
		EngagementScore:    2.67,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeImpact() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeImpact_EmptyIsZero(t *testing.T) {
	if diff := cmp.Diff(Metrics{}, ComputeImpact(nil, 2020)); diff != "" {
		t.Errorf("ComputeImpact(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeTrends_Synthetic(t *testing.T) {
	m := Metrics{TotalCitations: 1000, HIndex: 10, ImplementationRate: 20, Watersheds: 30}

	got := ComputeTrends(m, nil)
	if !got.Synthetic {
		t.Error("Synthetic = false, want true")
	}
	// 1000 vs 890.
	if got.Citations.Value != 12.4 || !got.Citations.Up {
		t.Errorf("Citations = %+v, want 12.4 up", got.Citations)
	}
	if got.HIndex.Value != 2 || got.Watersheds.Value != 8 {
		t.Errorf("HIndex/Watersheds = %v/%v, want 2/8", got.HIndex.Value, got.Watersheds.Value)
	}
	if got.ImplementationRate.Value != 4.7 {
		t.Errorf("ImplementationRate = %v, want 4.7", got.ImplementationRate.Value)
	}
}

func TestComputeTrends_StoredBaseline(t *testing.T) {
	m := Metrics{TotalCitations: 90, HIndex: 4, ImplementationRate: 10, Watersheds: 3}
	prev := &Baseline{TotalCitations: 100, HIndex: 4, ImplementationRate: 12.5, Watersheds: 1}

	got := ComputeTrends(m, prev)
	want := Trends{
		Citations:          Trend{Value: -10, Unit: "percent", Up: false},
		HIndex:             Trend{Value: 0, Unit: "count", Up: true},
		ImplementationRate: Trend{Value: -2.5, Unit: "points", Up: false},
		Watersheds:         Trend{Value: 2, Unit: "count", Up: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ComputeTrends() mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeTrends_ZeroBaseline(t *testing.T) {
	got := ComputeTrends(Metrics{TotalCitations: 5}, &Baseline{})
	if got.Citations.Value != 0 {
		t.Errorf("Citations = %v, want 0 for zero baseline", got.Citations.Value)
	}
}
