package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
	"github.com/accessmap/backend/internal/domain/rules"
	"github.com/accessmap/backend/internal/pkg/validate"
	pgrepo "github.com/accessmap/backend/internal/repo/postgres"
	"github.com/accessmap/backend/internal/services/geoindex"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("report not found")
	ErrAlreadyConfirmed = errors.New("already confirmed")
	ErrAlreadyReported  = errors.New("removal already reported")
	ErrAlreadyRemoved   = errors.New("report already removed")
	ErrRemoved          = errors.New("report is removed")
	ErrRateLimited      = errors.New("rate limited")
)

// RateLimitedError carries the retry hint alongside the sentinel.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return "rate limited, retry after " + strconv.FormatInt(e.RetryAfterSec, 10) + "s"
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

const maxCASAttempts = 5

type GeoIndex interface {
	FindDuplicate(ctx context.Context, featureType enums.FeatureType, lat, lon float64) (*model.Report, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]geoindex.Match, error)
	MergeRadiusMeters() float64
}

type ReportStore interface {
	Create(ctx context.Context, report model.Report) error
	GetByID(ctx context.Context, id string) (model.Report, error)
	UpdateCAS(ctx context.Context, report model.Report) error
}

// CreateLocker bounds the race between two concurrent submissions creating
// the same report twice. Optional; without it creation proceeds unlocked.
type CreateLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RateLimiter interface {
	AllowSubmit(ctx context.Context, actorID string) (int64, bool, error)
}

type Config struct {
	CreateLockTTL time.Duration
}

type Service struct {
	geo     GeoIndex
	store   ReportStore
	locker  CreateLocker
	limiter RateLimiter
	cfg     Config
	now     func() time.Time
}

type SubmitResult struct {
	Report  model.Report
	Created bool
	Grants  []model.PointsGrant
}

type MutationResult struct {
	Report model.Report
	Grants []model.PointsGrant
}

func NewService(geo GeoIndex, store ReportStore, cfg Config) *Service {
	if cfg.CreateLockTTL <= 0 {
		cfg.CreateLockTTL = 5 * time.Second
	}

	return &Service{
		geo:   geo,
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Service) AttachCreateLocker(locker CreateLocker) {
	s.locker = locker
}

func (s *Service) AttachRateLimiter(limiter RateLimiter) {
	s.limiter = limiter
}

// Submit either creates a report at an unoccupied location or reinforces the
// existing one within the merge radius. The creator of a new report counts
// as its first confirmation.
func (s *Service) Submit(ctx context.Context, rawType string, lat, lon float64, actorID, photoURL string) (SubmitResult, error) {
	featureType, ok := enums.ParseFeatureType(rawType)
	if !ok {
		return SubmitResult{}, fmt.Errorf("unknown feature type %q: %w", rawType, ErrInvalidInput)
	}
	if !validate.Required(actorID) {
		return SubmitResult{}, fmt.Errorf("actor id is required: %w", ErrInvalidInput)
	}
	if err := geoindex.ValidateCoordinates(lat, lon); err != nil {
		return SubmitResult{}, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowSubmit(ctx, actorID)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("check submit rate: %w", err)
		}
		if !allowed {
			return SubmitResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	dup, err := s.geo.FindDuplicate(ctx, featureType, lat, lon)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("find duplicate report: %w", err)
	}
	if dup != nil {
		result, err := s.reinforce(ctx, dup.ID, actorID, photoURL)
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{Report: result.Report, Grants: result.Grants, Created: false}, nil
	}

	return s.create(ctx, featureType, lat, lon, actorID, photoURL)
}

func (s *Service) create(ctx context.Context, featureType enums.FeatureType, lat, lon float64, actorID, photoURL string) (SubmitResult, error) {
	if s.locker != nil {
		key := geoindex.CellKey(featureType, lat, lon, s.geo.MergeRadiusMeters())
		acquired, err := s.locker.Acquire(ctx, key, s.cfg.CreateLockTTL)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("acquire create lock: %w", err)
		}
		if !acquired {
			// Another worker is creating here right now; re-check before
			// creating a second report for the same feature.
			dup, dupErr := s.geo.FindDuplicate(ctx, featureType, lat, lon)
			if dupErr != nil {
				return SubmitResult{}, fmt.Errorf("re-check duplicate report: %w", dupErr)
			}
			if dup != nil {
				result, reinforceErr := s.reinforce(ctx, dup.ID, actorID, photoURL)
				if reinforceErr != nil {
					return SubmitResult{}, reinforceErr
				}
				return SubmitResult{Report: result.Report, Grants: result.Grants, Created: false}, nil
			}
		} else {
			defer func() {
				_ = s.locker.Release(ctx, key)
			}()
		}
	}

	now := s.now()
	expiresAt := now.Add(rules.InitialTTL)
	report := model.Report{
		ID:        uuid.NewString(),
		Type:      featureType,
		Lat:       lat,
		Lon:       lon,
		CreatorID: actorID,
		Confirmations: []model.Confirmation{
			{UserID: actorID, CreatedAt: now},
		},
		Status:      enums.ReportStatusPending,
		IsPermanent: false,
		ExpiresAt:   &expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	grants := []model.PointsGrant{
		{UserID: actorID, Kind: enums.PointsReportCreated, Points: rules.PointsReportCreated},
	}
	if strings.TrimSpace(photoURL) != "" {
		report.Photos = append(report.Photos, model.Photo{
			URL:        photoURL,
			ReporterID: actorID,
			CreatedAt:  now,
		})
		grants = append(grants, model.PointsGrant{UserID: actorID, Kind: enums.PointsPhotoAdded, Points: rules.PointsPhotoAdded})
	}

	if err := s.store.Create(ctx, report); err != nil {
		return SubmitResult{}, fmt.Errorf("create report: %w", err)
	}

	return SubmitResult{Report: report, Created: true, Grants: grants}, nil
}

// reinforce treats a submission near an existing report as a confirmation.
// Unlike Confirm, a duplicate confirmation by the same actor is not an
// error; the report is returned unchanged.
func (s *Service) reinforce(ctx context.Context, reportID, actorID, photoURL string) (MutationResult, error) {
	return s.mutate(ctx, reportID, func(report *model.Report, now time.Time) ([]model.PointsGrant, bool, error) {
		if report.Status == enums.ReportStatusRemoved {
			return nil, false, nil
		}

		var grants []model.PointsGrant
		mutated := false

		if !report.HasConfirmation(actorID) {
			report.Confirmations = append(report.Confirmations, model.Confirmation{UserID: actorID, CreatedAt: now})
			grants = append(grants, model.PointsGrant{UserID: actorID, Kind: enums.PointsConfirmationGiven, Points: rules.PointsConfirmationGiven})
			if report.CreatorID != actorID {
				grants = append(grants, model.PointsGrant{UserID: report.CreatorID, Kind: enums.PointsConfirmationReceived, Points: rules.PointsConfirmationReceived})
			}
			mutated = true
		}

		if strings.TrimSpace(photoURL) != "" {
			report.Photos = append(report.Photos, model.Photo{URL: photoURL, ReporterID: actorID, CreatedAt: now})
			grants = append(grants, model.PointsGrant{UserID: actorID, Kind: enums.PointsPhotoAdded, Points: rules.PointsPhotoAdded})
			mutated = true
		}

		if mutated {
			rules.Recompute(report, now)
		}

		return grants, mutated, nil
	})
}

// Confirm adds the actor's confirmation to an existing report.
func (s *Service) Confirm(ctx context.Context, reportID, actorID, photoURL string) (MutationResult, error) {
	if !validate.Required(actorID) {
		return MutationResult{}, fmt.Errorf("actor id is required: %w", ErrInvalidInput)
	}

	return s.mutate(ctx, reportID, func(report *model.Report, now time.Time) ([]model.PointsGrant, bool, error) {
		if report.Status == enums.ReportStatusRemoved {
			return nil, false, ErrRemoved
		}
		if report.HasConfirmation(actorID) {
			return nil, false, ErrAlreadyConfirmed
		}

		report.Confirmations = append(report.Confirmations, model.Confirmation{UserID: actorID, CreatedAt: now})
		grants := []model.PointsGrant{
			{UserID: actorID, Kind: enums.PointsConfirmationGiven, Points: rules.PointsConfirmationGiven},
		}
		if report.CreatorID != actorID {
			grants = append(grants, model.PointsGrant{UserID: report.CreatorID, Kind: enums.PointsConfirmationReceived, Points: rules.PointsConfirmationReceived})
		}
		if strings.TrimSpace(photoURL) != "" {
			report.Photos = append(report.Photos, model.Photo{URL: photoURL, ReporterID: actorID, CreatedAt: now})
			grants = append(grants, model.PointsGrant{UserID: actorID, Kind: enums.PointsPhotoAdded, Points: rules.PointsPhotoAdded})
		}

		rules.Recompute(report, now)
		return grants, true, nil
	})
}

// ReportRemoval records the actor's claim that the feature no longer
// exists. At the removal threshold the report is forced into the terminal
// removed status; its permanence flag is left as-is and expiry is cleared.
func (s *Service) ReportRemoval(ctx context.Context, reportID, actorID string) (MutationResult, error) {
	if !validate.Required(actorID) {
		return MutationResult{}, fmt.Errorf("actor id is required: %w", ErrInvalidInput)
	}

	return s.mutate(ctx, reportID, func(report *model.Report, now time.Time) ([]model.PointsGrant, bool, error) {
		if report.Status == enums.ReportStatusRemoved {
			return nil, false, ErrAlreadyRemoved
		}
		if report.HasRemovalReport(actorID) {
			return nil, false, ErrAlreadyReported
		}

		report.RemovalReports = append(report.RemovalReports, model.RemovalReport{UserID: actorID, CreatedAt: now})
		if len(report.RemovalReports) >= rules.RemovalThreshold {
			report.Status = enums.ReportStatusRemoved
			report.ExpiresAt = nil
		}

		return nil, true, nil
	})
}

func (s *Service) Get(ctx context.Context, reportID string) (model.Report, error) {
	report, err := s.store.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrReportNotFound) {
			return model.Report{}, ErrNotFound
		}
		return model.Report{}, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

func (s *Service) Nearby(ctx context.Context, lat, lon, radiusMeters float64) ([]geoindex.Match, error) {
	matches, err := s.geo.FindNearby(ctx, lat, lon, radiusMeters)
	if err != nil {
		if errors.Is(err, geoindex.ErrValidation) {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
		}
		return nil, fmt.Errorf("find nearby reports: %w", err)
	}
	return matches, nil
}

// mutate runs fn against a fresh copy of the report and persists it with a
// compare-and-swap, retrying on version conflicts so that concurrent
// mutations of the same report serialize instead of clobbering each other.
func (s *Service) mutate(ctx context.Context, reportID string, fn func(*model.Report, time.Time) ([]model.PointsGrant, bool, error)) (MutationResult, error) {
	if !validate.Required(reportID) {
		return MutationResult{}, fmt.Errorf("report id is required: %w", ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		report, err := s.store.GetByID(ctx, reportID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrReportNotFound) {
				return MutationResult{}, ErrNotFound
			}
			return MutationResult{}, fmt.Errorf("get report: %w", err)
		}

		now := s.now()
		grants, mutated, err := fn(&report, now)
		if err != nil {
			return MutationResult{}, err
		}
		if !mutated {
			return MutationResult{Report: report, Grants: grants}, nil
		}

		report.UpdatedAt = now
		if err := s.store.UpdateCAS(ctx, report); err != nil {
			if errors.Is(err, pgrepo.ErrVersionConflict) {
				lastErr = err
				continue
			}
			if errors.Is(err, pgrepo.ErrReportNotFound) {
				return MutationResult{}, ErrNotFound
			}
			return MutationResult{}, fmt.Errorf("save report: %w", err)
		}

		report.Version++
		return MutationResult{Report: report, Grants: grants}, nil
	}

	return MutationResult{}, fmt.Errorf("report mutation contention after %d attempts: %w", maxCASAttempts, lastErr)
}
