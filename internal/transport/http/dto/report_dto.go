package dto

import "time"

type SubmitReportRequest struct {
	Type     string  `json:"type"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	PhotoURL string  `json:"photo_url,omitempty"`
}

type ConfirmReportRequest struct {
	PhotoURL string `json:"photo_url,omitempty"`
}

type FlagPhotoRequest struct {
	Reason string `json:"reason,omitempty"`
}

type PhotoResponse struct {
	URL        string    `json:"url"`
	ReporterID string    `json:"reporter_id"`
	IsHidden   bool      `json:"is_hidden"`
	FlagsCount int       `json:"flags_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReportResponse struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	Lat                 float64         `json:"lat"`
	Lon                 float64         `json:"lon"`
	Status              string          `json:"status"`
	IsPermanent         bool            `json:"is_permanent"`
	ConfirmationsCount  int             `json:"confirmations_count"`
	RemovalReportsCount int             `json:"removal_reports_count"`
	Photos              []PhotoResponse `json:"photos"`
	PrimaryPhotoURL     string          `json:"primary_photo_url,omitempty"`
	ExpiresAt           *time.Time      `json:"expires_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type SubmitReportResponse struct {
	Report  ReportResponse `json:"report"`
	Created bool           `json:"created"`
}

type NearbyReportResponse struct {
	Report         ReportResponse `json:"report"`
	DistanceMeters float64        `json:"distance_m"`
}

type NearbyResponse struct {
	Reports []NearbyReportResponse `json:"reports"`
}

type FlagPhotoResponse struct {
	Photo      PhotoResponse `json:"photo"`
	FlagsCount int           `json:"flags_count"`
	Hidden     bool          `json:"hidden"`
}
