package enums

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusConfirmed ReportStatus = "confirmed"
	ReportStatusPermanent ReportStatus = "permanent"
	ReportStatusRemoved   ReportStatus = "removed"
)
