package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/accessmap/backend/internal/domain/model"
	"github.com/accessmap/backend/internal/domain/rules"
	pgrepo "github.com/accessmap/backend/internal/repo/postgres"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrReportNotFound = errors.New("report not found")
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrAlreadyFlagged = errors.New("photo already flagged")
)

const (
	defaultFlagReason = "inappropriate"
	maxCASAttempts    = 5
)

type ReportStore interface {
	GetByID(ctx context.Context, id string) (model.Report, error)
	UpdateCAS(ctx context.Context, report model.Report) error
}

// Service maintains the per-photo abuse ledger. Flags accumulate
// independently of the report lifecycle, so photos on removed reports can
// still be flagged and hidden.
type Service struct {
	store ReportStore
	now   func() time.Time
}

func NewService(store ReportStore) *Service {
	return &Service{store: store, now: time.Now}
}

// FlagPhoto records a distinct abuse flag against the photo at the given
// index. Reaching the hide threshold hides the photo; hiding is sticky and
// later flags keep accumulating on the ledger.
func (s *Service) FlagPhoto(ctx context.Context, reportID string, photoIndex int, actorID, reason string) (model.Photo, error) {
	if strings.TrimSpace(reportID) == "" {
		return model.Photo{}, fmt.Errorf("report id is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(actorID) == "" {
		return model.Photo{}, fmt.Errorf("actor id is required: %w", ErrInvalidInput)
	}
	if photoIndex < 0 {
		return model.Photo{}, fmt.Errorf("photo index must not be negative: %w", ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultFlagReason
	}

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		report, err := s.store.GetByID(ctx, reportID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrReportNotFound) {
				return model.Photo{}, ErrReportNotFound
			}
			return model.Photo{}, fmt.Errorf("get report: %w", err)
		}

		if photoIndex >= len(report.Photos) {
			return model.Photo{}, ErrPhotoNotFound
		}

		photo := &report.Photos[photoIndex]
		if photo.HasAbuseFlag(actorID) {
			return model.Photo{}, ErrAlreadyFlagged
		}

		now := s.now()
		photo.AbuseReports = append(photo.AbuseReports, model.PhotoAbuseFlag{
			ReporterID: actorID,
			Reason:     reason,
			CreatedAt:  now,
		})
		if len(photo.AbuseReports) >= rules.PhotoHideThreshold {
			photo.IsHidden = true
		}

		report.UpdatedAt = now
		if err := s.store.UpdateCAS(ctx, report); err != nil {
			if errors.Is(err, pgrepo.ErrVersionConflict) {
				lastErr = err
				continue
			}
			if errors.Is(err, pgrepo.ErrReportNotFound) {
				return model.Photo{}, ErrReportNotFound
			}
			return model.Photo{}, fmt.Errorf("save report: %w", err)
		}

		return *photo, nil
	}

	return model.Photo{}, fmt.Errorf("photo flag contention after %d attempts: %w", maxCASAttempts, lastErr)
}

// PrimaryPhoto picks the photo to show on a report card: the first visible
// photo, falling back to the first photo when all are hidden.
func PrimaryPhoto(report model.Report) *model.Photo {
	if len(report.Photos) == 0 {
		return nil
	}
	for i := range report.Photos {
		if !report.Photos[i].IsHidden {
			return &report.Photos[i]
		}
	}
	return &report.Photos[0]
}
