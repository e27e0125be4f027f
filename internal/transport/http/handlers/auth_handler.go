package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/accessmap/backend/internal/services/auth"
	"github.com/accessmap/backend/internal/transport/http/dto"
	httperrors "github.com/accessmap/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
}

func NewAuthHandler(service *authsvc.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.AnonymousAuthRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	res, err := h.service.AnonymousSession(r.Context(), req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidInput):
			writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AuthTokenResponse{
		AccessToken:  res.AccessToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		ActorID:      res.ActorID,
	})
}
