package model

import (
	"time"

	"github.com/accessmap/backend/internal/domain/enums"
)

type Report struct {
	ID             string             `json:"id"`
	Type           enums.FeatureType  `json:"type"`
	Lat            float64            `json:"lat"`
	Lon            float64            `json:"lon"`
	CreatorID      string             `json:"creator_id"`
	Photos         []Photo            `json:"photos"`
	Confirmations  []Confirmation     `json:"confirmations"`
	RemovalReports []RemovalReport    `json:"removal_reports"`
	Status         enums.ReportStatus `json:"status"`
	IsPermanent    bool               `json:"is_permanent"`
	ExpiresAt      *time.Time         `json:"expires_at"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int64              `json:"-"`
}

type Confirmation struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type RemovalReport struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Report) HasConfirmation(userID string) bool {
	for _, c := range r.Confirmations {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Report) HasRemovalReport(userID string) bool {
	for _, rr := range r.RemovalReports {
		if rr.UserID == userID {
			return true
		}
	}
	return false
}
