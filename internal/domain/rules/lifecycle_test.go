package rules

import (
	"testing"
	"time"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
)

func TestRecomputeTransitionsPendingToConfirmed(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	report := reportWithCounts(1, 0, enums.ReportStatusPending)

	Recompute(report, now)

	if report.Status != enums.ReportStatusConfirmed {
		t.Fatalf("unexpected status: %s", report.Status)
	}
	if report.ExpiresAt == nil || !report.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("unexpected expiry: %v", report.ExpiresAt)
	}
}

func TestRecomputeCapsExtensionAtSevenDays(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	report := reportWithCounts(9, 0, enums.ReportStatusPending)

	Recompute(report, now)

	if report.ExpiresAt == nil || !report.ExpiresAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected expiry: %v", report.ExpiresAt)
	}
}

func TestRecomputeDoesNotResetExpiryOnceConfirmed(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	report := reportWithCounts(2, 0, enums.ReportStatusConfirmed)
	expiresAt := now.Add(12 * time.Hour)
	report.ExpiresAt = &expiresAt

	Recompute(report, now.Add(time.Hour))

	if report.Status != enums.ReportStatusConfirmed {
		t.Fatalf("unexpected status: %s", report.Status)
	}
	if report.ExpiresAt == nil || !report.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expiry must stay untouched after the pending transition, got %v", report.ExpiresAt)
	}
}

func TestRecomputeGrantsPermanenceAtThreshold(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	report := reportWithCounts(PermanentThreshold, 0, enums.ReportStatusConfirmed)
	expiresAt := now.Add(24 * time.Hour)
	report.ExpiresAt = &expiresAt

	Recompute(report, now)

	if report.Status != enums.ReportStatusPermanent {
		t.Fatalf("unexpected status: %s", report.Status)
	}
	if !report.IsPermanent {
		t.Fatalf("expected permanent flag")
	}
	if report.ExpiresAt != nil {
		t.Fatalf("permanent report must not expire, got %v", report.ExpiresAt)
	}
}

func TestRecomputeRemovalWinsOverPermanence(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	report := reportWithCounts(PermanentThreshold, RemovalThreshold, enums.ReportStatusConfirmed)

	Recompute(report, now)

	if report.Status != enums.ReportStatusRemoved {
		t.Fatalf("unexpected status: %s", report.Status)
	}
	if report.ExpiresAt != nil {
		t.Fatalf("removed report must have no expiry, got %v", report.ExpiresAt)
	}
}

func TestLevelForPoints(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{points: 0, level: 1},
		{points: 49, level: 1},
		{points: 50, level: 2},
		{points: 150, level: 3},
		{points: 299, level: 3},
		{points: 500, level: 5},
		{points: 10000, level: 8},
	}

	for _, tt := range tests {
		if got := LevelForPoints(tt.points); got != tt.level {
			t.Fatalf("level for %d points: got %d want %d", tt.points, got, tt.level)
		}
	}
}

func reportWithCounts(confirmations, removals int, status enums.ReportStatus) *model.Report {
	report := &model.Report{Status: status}
	for i := 0; i < confirmations; i++ {
		report.Confirmations = append(report.Confirmations, model.Confirmation{UserID: userID("c", i)})
	}
	for i := 0; i < removals; i++ {
		report.RemovalReports = append(report.RemovalReports, model.RemovalReport{UserID: userID("r", i)})
	}
	return report
}

func userID(prefix string, i int) string {
	return prefix + "-" + string(rune('a'+i))
}
