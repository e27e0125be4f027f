package handlers

import (
	"errors"
	"net/http"
	"time"

	authsvc "github.com/accessmap/backend/internal/services/auth"
	mediasvc "github.com/accessmap/backend/internal/services/media"
	"github.com/accessmap/backend/internal/transport/http/dto"
	httperrors "github.com/accessmap/backend/internal/transport/http/errors"
)

type MediaHandler struct {
	service *mediasvc.Service
}

func NewMediaHandler(service *mediasvc.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) PresignPhoto(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	var req dto.PhotoPresignRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	upload, err := h.service.PreparePhotoUpload(r.Context(), identity.ActorID, req.FileName)
	if err != nil {
		switch {
		case errors.Is(err, mediasvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload request")
		default:
			httperrors.Write(w, http.StatusServiceUnavailable, httperrors.APIError{
				Code:    "STORAGE_UNAVAILABLE",
				Message: "photo storage is unavailable",
			})
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoPresignResponse{
		UploadURL:    upload.UploadURL,
		PhotoURL:     upload.PhotoURL,
		ExpiresInSec: maxInt64(0, int64(time.Until(upload.ExpiresAt).Seconds())),
	})
}
