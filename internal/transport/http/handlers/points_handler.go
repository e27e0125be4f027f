package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/accessmap/backend/internal/services/auth"
	pointssvc "github.com/accessmap/backend/internal/services/points"
	"github.com/accessmap/backend/internal/transport/http/dto"
	httperrors "github.com/accessmap/backend/internal/transport/http/errors"
)

type PointsHandler struct {
	service *pointssvc.Service
}

func NewPointsHandler(service *pointssvc.Service) *PointsHandler {
	return &PointsHandler{service: service}
}

func (h *PointsHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "POINTS_SERVICE_UNAVAILABLE", "points service is unavailable")
		return
	}

	user, err := h.service.Get(r.Context(), identity.ActorID)
	if err != nil {
		switch {
		case errors.Is(err, pointssvc.ErrNotFound):
			// nothing earned yet
			httperrors.Write(w, http.StatusOK, dto.UserPointsResponse{
				UserID:    identity.ActorID,
				Points:    0,
				Level:     1,
				Breakdown: map[string]int{},
			})
		case errors.Is(err, pointssvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid points request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load points")
		}
		return
	}

	breakdown := user.Breakdown
	if breakdown == nil {
		breakdown = map[string]int{}
	}

	httperrors.Write(w, http.StatusOK, dto.UserPointsResponse{
		UserID:    user.ID,
		Points:    user.Points,
		Level:     user.Level,
		Breakdown: breakdown,
	})
}
