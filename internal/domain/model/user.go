package model

import "time"

type User struct {
	ID        string         `json:"id"`
	Points    int            `json:"points"`
	Breakdown map[string]int `json:"breakdown"`
	Level     int            `json:"level"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
