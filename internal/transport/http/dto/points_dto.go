package dto

type UserPointsResponse struct {
	UserID    string         `json:"user_id"`
	Points    int            `json:"points"`
	Level     int            `json:"level"`
	Breakdown map[string]int `json:"breakdown"`
}
