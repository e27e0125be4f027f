package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
)

var (
	ErrReportNotFound  = errors.New("report not found")
	ErrVersionConflict = errors.New("report version conflict")
	ErrDuplicateReport = errors.New("report already exists")
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) Create(ctx context.Context, report model.Report) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(report.ID) == "" {
		return fmt.Errorf("report id is required")
	}

	photos, confirmations, removals, err := marshalReportSets(report)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO reports (
	id,
	feature_type,
	lat,
	lon,
	creator_id,
	photos,
	confirmations,
	removal_reports,
	status,
	is_permanent,
	expires_at,
	created_at,
	updated_at,
	version
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`,
		report.ID,
		string(report.Type),
		report.Lat,
		report.Lon,
		report.CreatorID,
		photos,
		confirmations,
		removals,
		string(report.Status),
		report.IsPermanent,
		report.ExpiresAt,
		report.CreatedAt,
		report.UpdatedAt,
		report.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReport
		}
		return fmt.Errorf("insert report: %w", err)
	}

	return nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id string) (model.Report, error) {
	if r.pool == nil {
		return model.Report{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(id) == "" {
		return model.Report{}, ErrReportNotFound
	}

	row := r.pool.QueryRow(ctx, reportSelectColumns+`
FROM reports
WHERE id = $1
LIMIT 1
`, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Report{}, ErrReportNotFound
		}
		return model.Report{}, fmt.Errorf("get report by id: %w", err)
	}

	return report, nil
}

// UpdateCAS persists a mutated report only when its version still matches
// the version it was read at. The stored version is bumped on success.
func (r *ReportRepo) UpdateCAS(ctx context.Context, report model.Report) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	photos, confirmations, removals, err := marshalReportSets(report)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE reports SET
	photos = $1,
	confirmations = $2,
	removal_reports = $3,
	status = $4,
	is_permanent = $5,
	expires_at = $6,
	updated_at = $7,
	version = version + 1
WHERE id = $8 AND version = $9
`,
		photos,
		confirmations,
		removals,
		string(report.Status),
		report.IsPermanent,
		report.ExpiresAt,
		report.UpdatedAt,
		report.ID,
		report.Version,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, report.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}

	return nil
}

// ListActiveWithinBox returns non-removed reports inside a lat/lon bounding
// box. Callers filter by exact geodesic distance; the box is only a
// pre-filter.
func (r *ReportRepo) ListActiveWithinBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64) ([]model.Report, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, reportSelectColumns+`
FROM reports
WHERE status <> $1
  AND lat BETWEEN $2 AND $3
  AND lon BETWEEN $4 AND $5
`, string(enums.ReportStatusRemoved), minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, fmt.Errorf("list reports within box: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		report, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan report row: %w", scanErr)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return reports, nil
}

// DeleteExpired removes non-permanent reports whose expiry has elapsed.
// Removed reports are kept for their retention window and handled by
// DeleteRemovedBefore.
func (r *ReportRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM reports
WHERE is_permanent = FALSE
  AND status <> $1
  AND expires_at IS NOT NULL
  AND expires_at < $2
`, string(enums.ReportStatusRemoved), now)
	if err != nil {
		return 0, fmt.Errorf("delete expired reports: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *ReportRepo) DeleteRemovedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM reports
WHERE status = $1
  AND updated_at < $2
`, string(enums.ReportStatusRemoved), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete removed reports: %w", err)
	}

	return tag.RowsAffected(), nil
}

const reportSelectColumns = `
SELECT
	id,
	feature_type,
	lat,
	lon,
	creator_id,
	photos,
	confirmations,
	removal_reports,
	status,
	is_permanent,
	expires_at,
	created_at,
	updated_at,
	version
`

func scanReport(row pgx.Row) (model.Report, error) {
	var (
		report        model.Report
		featureType   string
		status        string
		photos        []byte
		confirmations []byte
		removals      []byte
	)

	err := row.Scan(
		&report.ID,
		&featureType,
		&report.Lat,
		&report.Lon,
		&report.CreatorID,
		&photos,
		&confirmations,
		&removals,
		&status,
		&report.IsPermanent,
		&report.ExpiresAt,
		&report.CreatedAt,
		&report.UpdatedAt,
		&report.Version,
	)
	if err != nil {
		return model.Report{}, err
	}

	report.Type = enums.FeatureType(featureType)
	report.Status = enums.ReportStatus(status)

	if err := unmarshalInto(photos, &report.Photos); err != nil {
		return model.Report{}, fmt.Errorf("decode report photos: %w", err)
	}
	if err := unmarshalInto(confirmations, &report.Confirmations); err != nil {
		return model.Report{}, fmt.Errorf("decode report confirmations: %w", err)
	}
	if err := unmarshalInto(removals, &report.RemovalReports); err != nil {
		return model.Report{}, fmt.Errorf("decode report removal reports: %w", err)
	}

	return report, nil
}

func marshalReportSets(report model.Report) (photos, confirmations, removals []byte, err error) {
	photos, err = json.Marshal(report.Photos)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode report photos: %w", err)
	}
	confirmations, err = json.Marshal(report.Confirmations)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode report confirmations: %w", err)
	}
	removals, err = json.Marshal(report.RemovalReports)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode report removal reports: %w", err)
	}
	return photos, confirmations, removals, nil
}

func unmarshalInto(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
