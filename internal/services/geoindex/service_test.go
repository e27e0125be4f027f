package geoindex

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
)

// ~0.000135 degrees of latitude is about 15 meters.
const deg15m = 15.0 / 111320.0

func TestFindDuplicateMatchesSameTypeWithinMergeRadius(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeLister{reports: []model.Report{
		activeReport("a", enums.FeatureRamp, 53.9006, 27.5590, base),
	}}
	svc := NewService(store, Config{})

	dup, err := svc.FindDuplicate(context.Background(), enums.FeatureRamp, 53.9006+deg15m, 27.5590)
	if err != nil {
		t.Fatalf("find duplicate: %v", err)
	}
	if dup == nil || dup.ID != "a" {
		t.Fatalf("expected report a as duplicate, got %+v", dup)
	}
}

func TestFindDuplicateIgnoresOtherTypesAndRemoved(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	removed := activeReport("r", enums.FeatureRamp, 53.9006, 27.5590, base)
	removed.Status = enums.ReportStatusRemoved
	store := &fakeLister{reports: []model.Report{
		activeReport("e", enums.FeatureElevator, 53.9006, 27.5590, base),
		removed,
	}}
	svc := NewService(store, Config{})

	dup, err := svc.FindDuplicate(context.Background(), enums.FeatureRamp, 53.9006, 27.5590)
	if err != nil {
		t.Fatalf("find duplicate: %v", err)
	}
	if dup != nil {
		t.Fatalf("expected no duplicate, got %s", dup.ID)
	}
}

func TestFindDuplicatePrefersNearestThenEarliest(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeLister{reports: []model.Report{
		activeReport("far", enums.FeatureRamp, 53.9006+deg15m, 27.5590, base),
		activeReport("near-late", enums.FeatureRamp, 53.9006, 27.5590, base.Add(time.Hour)),
		activeReport("near-early", enums.FeatureRamp, 53.9006, 27.5590, base),
	}}
	svc := NewService(store, Config{})

	dup, err := svc.FindDuplicate(context.Background(), enums.FeatureRamp, 53.9006, 27.5590)
	if err != nil {
		t.Fatalf("find duplicate: %v", err)
	}
	if dup == nil || dup.ID != "near-early" {
		t.Fatalf("expected near-early, got %+v", dup)
	}
}

func TestFindDuplicateOutsideMergeRadius(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	// ~50 meters north of the probe point
	store := &fakeLister{reports: []model.Report{
		activeReport("a", enums.FeatureRamp, 53.9006+50.0/111320.0, 27.5590, base),
	}}
	svc := NewService(store, Config{})

	dup, err := svc.FindDuplicate(context.Background(), enums.FeatureRamp, 53.9006, 27.5590)
	if err != nil {
		t.Fatalf("find duplicate: %v", err)
	}
	if dup != nil {
		t.Fatalf("expected no duplicate beyond merge radius, got %s", dup.ID)
	}
}

func TestFindNearbyOrdersByDistanceThenCreatedAt(t *testing.T) {
	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeLister{reports: []model.Report{
		activeReport("c", enums.FeatureRamp, 53.9006+3*deg15m, 27.5590, base),
		activeReport("b-late", enums.FeatureElevator, 53.9006+deg15m, 27.5590, base.Add(time.Hour)),
		activeReport("b-early", enums.FeatureHandrail, 53.9006+deg15m, 27.5590, base),
		activeReport("a", enums.FeatureRamp, 53.9006, 27.5590, base),
	}}
	svc := NewService(store, Config{})

	matches, err := svc.FindNearby(context.Background(), 53.9006, 27.5590, 500)
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}

	got := make([]string, 0, len(matches))
	for _, m := range matches {
		got = append(got, m.Report.ID)
	}
	want := []string{"a", "b-early", "b-late", "c"}
	if len(got) != len(want) {
		t.Fatalf("unexpected match count: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].DistanceMeters < matches[i-1].DistanceMeters {
			t.Fatalf("distances not ascending: %v", matches)
		}
	}
}

func TestFindNearbyRejectsInvalidCoordinates(t *testing.T) {
	svc := NewService(&fakeLister{}, Config{})

	cases := []struct{ lat, lon float64 }{
		{lat: 91, lon: 0},
		{lat: 0, lon: -181},
		{lat: math.NaN(), lon: 0},
		{lat: 0, lon: math.Inf(1)},
	}
	for _, tc := range cases {
		if _, err := svc.FindNearby(context.Background(), tc.lat, tc.lon, 100); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for (%v,%v), got %v", tc.lat, tc.lon, err)
		}
	}
}

func TestHaversineMetersIsAccurateAtCityScale(t *testing.T) {
	// Minsk center to a point ~1113 meters east along the 53.9 parallel.
	d := HaversineMeters(53.9006, 27.5590, 53.9006, 27.5590+0.0170)
	if d < 1050 || d > 1180 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestCellKeyStableWithinCell(t *testing.T) {
	k1 := CellKey(enums.FeatureRamp, 53.90060, 27.55900, 20)
	k2 := CellKey(enums.FeatureRamp, 53.90061, 27.55901, 20)
	if k1 != k2 {
		t.Fatalf("expected same cell key for close points: %s vs %s", k1, k2)
	}

	k3 := CellKey(enums.FeatureElevator, 53.90060, 27.55900, 20)
	if k1 == k3 {
		t.Fatalf("expected type-specific cell keys")
	}
}

type fakeLister struct {
	reports []model.Report
}

func (f *fakeLister) ListActiveWithinBox(_ context.Context, minLat, maxLat, minLon, maxLon float64) ([]model.Report, error) {
	var out []model.Report
	for _, r := range f.reports {
		if r.Status == enums.ReportStatusRemoved {
			continue
		}
		if r.Lat < minLat || r.Lat > maxLat || r.Lon < minLon || r.Lon > maxLon {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func activeReport(id string, featureType enums.FeatureType, lat, lon float64, createdAt time.Time) model.Report {
	return model.Report{
		ID:        id,
		Type:      featureType,
		Lat:       lat,
		Lon:       lon,
		Status:    enums.ReportStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}
