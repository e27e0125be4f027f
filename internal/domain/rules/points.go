package rules

import "github.com/accessmap/backend/internal/domain/enums"

const (
	PointsReportCreated        = 10
	PointsConfirmationGiven    = 5
	PointsConfirmationReceived = 3
	PointsPhotoAdded           = 2
)

func PointsForKind(kind enums.PointsKind) int {
	switch kind {
	case enums.PointsReportCreated:
		return PointsReportCreated
	case enums.PointsConfirmationGiven:
		return PointsConfirmationGiven
	case enums.PointsConfirmationReceived:
		return PointsConfirmationReceived
	case enums.PointsPhotoAdded:
		return PointsPhotoAdded
	default:
		return 0
	}
}

// levelThresholds maps total points to a level: the level is the index of
// the highest threshold not exceeding the total, one-based.
var levelThresholds = []int{0, 50, 150, 300, 500, 750, 1100, 1500}

func LevelForPoints(points int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if points >= threshold {
			level = i + 1
		}
	}
	return level
}
