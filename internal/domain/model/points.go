package model

import "github.com/accessmap/backend/internal/domain/enums"

// PointsGrant is a side effect emitted by a lifecycle mutation. The engine
// never touches the users table itself; grants are applied at the boundary.
type PointsGrant struct {
	UserID string           `json:"user_id"`
	Kind   enums.PointsKind `json:"kind"`
	Points int              `json:"points"`
}
