package rules

import (
	"time"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
)

const (
	// PermanentThreshold is the confirmation count at which a report stops
	// expiring.
	PermanentThreshold = 10
	// RemovalThreshold is the count of distinct removal reports that forces
	// the terminal removed status.
	RemovalThreshold = 10
	// PhotoHideThreshold is the count of distinct abuse flags that hides a
	// photo.
	PhotoHideThreshold = 5

	// InitialTTL is the expiry window granted to a freshly created report.
	InitialTTL = 48 * time.Hour
	// ExtensionDay is the expiry extension earned per confirmation.
	ExtensionDay = 24 * time.Hour
	// MaxExtensionDays caps the expiry extension regardless of confirmation
	// count.
	MaxExtensionDays = 7
)

// Recompute derives status and expiry from the report's confirmation and
// removal sets. Removal wins over everything else; permanence is sticky and
// clears expiry; the confirmed branch fires only while the report is still
// pending, so the expiry window is reset at the pending-to-confirmed
// transition and not on later confirmations.
func Recompute(r *model.Report, now time.Time) {
	if len(r.RemovalReports) >= RemovalThreshold {
		r.Status = enums.ReportStatusRemoved
		r.ExpiresAt = nil
		return
	}

	if len(r.Confirmations) >= PermanentThreshold {
		if !r.IsPermanent {
			r.IsPermanent = true
			r.Status = enums.ReportStatusPermanent
			r.ExpiresAt = nil
		}
		return
	}

	if len(r.Confirmations) >= 1 && r.Status == enums.ReportStatusPending {
		r.Status = enums.ReportStatusConfirmed
		days := len(r.Confirmations)
		if days > MaxExtensionDays {
			days = MaxExtensionDays
		}
		expiresAt := now.Add(time.Duration(days) * ExtensionDay)
		r.ExpiresAt = &expiresAt
	}
}
