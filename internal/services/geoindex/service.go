package geoindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

const (
	defaultMergeRadiusMeters  = 20
	defaultNearbyRadiusMeters = 1000

	// meters per degree of latitude; good enough for bounding-box
	// pre-filters, exact filtering uses haversine.
	metersPerDegreeLat = 111320.0
)

// ReportLister serves non-removed reports inside a lat/lon bounding box.
type ReportLister interface {
	ListActiveWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]model.Report, error)
}

type Config struct {
	MergeRadiusMeters  float64
	NearbyRadiusMeters float64
}

type Service struct {
	store ReportLister
	cfg   Config
}

type Match struct {
	Report         model.Report
	DistanceMeters float64
}

func NewService(store ReportLister, cfg Config) *Service {
	if cfg.MergeRadiusMeters <= 0 {
		cfg.MergeRadiusMeters = defaultMergeRadiusMeters
	}
	if cfg.NearbyRadiusMeters <= 0 {
		cfg.NearbyRadiusMeters = defaultNearbyRadiusMeters
	}

	return &Service{store: store, cfg: cfg}
}

func (s *Service) MergeRadiusMeters() float64 {
	return s.cfg.MergeRadiusMeters
}

// FindDuplicate returns the nearest non-removed report of the same feature
// type within the merge radius, or nil when the location is unoccupied.
// Equidistant candidates resolve to the earliest created report.
func (s *Service) FindDuplicate(ctx context.Context, featureType enums.FeatureType, lat, lon float64) (*model.Report, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("geo index store is nil")
	}

	matches, err := s.matchesWithin(ctx, lat, lon, s.cfg.MergeRadiusMeters)
	if err != nil {
		return nil, err
	}

	var best *Match
	for i := range matches {
		match := &matches[i]
		if match.Report.Type != featureType {
			continue
		}
		if best == nil || closer(match, best) {
			best = match
		}
	}

	if best == nil {
		return nil, nil
	}

	report := best.Report
	return &report, nil
}

// FindNearby returns non-removed reports of any type within the radius,
// ordered by ascending distance with CreatedAt as a stable tie-break.
// A non-positive radius falls back to the configured default.
func (s *Service) FindNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]Match, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("geo index store is nil")
	}
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.NearbyRadiusMeters
	}

	matches, err := s.matchesWithin(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return closer(&matches[i], &matches[j])
	})

	return matches, nil
}

func (s *Service) matchesWithin(ctx context.Context, lat, lon, radiusMeters float64) ([]Match, error) {
	minLat, maxLat, minLon, maxLon := boundingBox(lat, lon, radiusMeters)

	reports, err := s.store.ListActiveWithinBox(ctx, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, fmt.Errorf("list reports within box: %w", err)
	}

	matches := make([]Match, 0, len(reports))
	for _, report := range reports {
		if report.Status == enums.ReportStatusRemoved {
			continue
		}
		distance := HaversineMeters(lat, lon, report.Lat, report.Lon)
		if distance > radiusMeters {
			continue
		}
		matches = append(matches, Match{Report: report, DistanceMeters: distance})
	}

	return matches, nil
}

func closer(a, b *Match) bool {
	if a.DistanceMeters != b.DistanceMeters {
		return a.DistanceMeters < b.DistanceMeters
	}
	return a.Report.CreatedAt.Before(b.Report.CreatedAt)
}

// CellKey quantizes a location into a grid cell sized to the given radius,
// prefixed with the feature type. Submissions racing for the same
// real-world feature land on the same key.
func CellKey(featureType enums.FeatureType, lat, lon, radiusMeters float64) string {
	if radiusMeters <= 0 {
		radiusMeters = defaultMergeRadiusMeters
	}
	cellDegrees := radiusMeters / metersPerDegreeLat
	latCell := int64(math.Floor(lat / cellDegrees))
	lonCell := int64(math.Floor(lon / cellDegrees))
	return string(featureType) + ":" + strconv.FormatInt(latCell, 10) + ":" + strconv.FormatInt(lonCell, 10)
}

func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return fmt.Errorf("invalid coordinates: %w", ErrValidation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range: %w", ErrValidation)
	}
	return nil
}

func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0

	toRad := func(v float64) float64 { return v * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

func boundingBox(lat, lon, radiusMeters float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusMeters / metersPerDegreeLat

	cosLat := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-6 {
		dLon = radiusMeters / (metersPerDegreeLat * cosLat)
	}

	minLat = math.Max(lat-dLat, -90)
	maxLat = math.Min(lat+dLat, 90)
	minLon = math.Max(lon-dLon, -180)
	maxLon = math.Min(lon+dLon, 180)
	return minLat, maxLat, minLon, maxLon
}
