package model

import "time"

type Photo struct {
	URL          string           `json:"url"`
	ReporterID   string           `json:"reporter_id"`
	CreatedAt    time.Time        `json:"created_at"`
	AbuseReports []PhotoAbuseFlag `json:"abuse_reports"`
	IsHidden     bool             `json:"is_hidden"`
}

type PhotoAbuseFlag struct {
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Photo) HasAbuseFlag(reporterID string) bool {
	for _, f := range p.AbuseReports {
		if f.ReporterID == reporterID {
			return true
		}
	}
	return false
}
