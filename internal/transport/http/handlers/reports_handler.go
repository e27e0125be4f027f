package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/accessmap/backend/internal/domain/model"
	authsvc "github.com/accessmap/backend/internal/services/auth"
	mediasvc "github.com/accessmap/backend/internal/services/media"
	photossvc "github.com/accessmap/backend/internal/services/photos"
	pointssvc "github.com/accessmap/backend/internal/services/points"
	reportssvc "github.com/accessmap/backend/internal/services/reports"
	"github.com/accessmap/backend/internal/transport/http/dto"
	httperrors "github.com/accessmap/backend/internal/transport/http/errors"
)

type ReportsHandler struct {
	reports *reportssvc.Service
	photos  *photossvc.Service
	points  *pointssvc.Service
	media   *mediasvc.Service
	logger  *zap.Logger
}

func NewReportsHandler(reports *reportssvc.Service, photos *photossvc.Service, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportsHandler{
		reports: reports,
		photos:  photos,
		logger:  logger,
	}
}

// AttachPoints enables point crediting for report activity. Without it
// reports still work, nobody earns anything.
func (h *ReportsHandler) AttachPoints(points *pointssvc.Service) {
	h.points = points
}

// AttachMedia enables presigned view URLs in responses. Without it the
// stable object URLs are returned as stored.
func (h *ReportsHandler) AttachMedia(media *mediasvc.Service) {
	h.media = media
}

func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	var req dto.SubmitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.reports.Submit(r.Context(), req.Type, req.Lat, req.Lon, identity.ActorID, req.PhotoURL)
	if err != nil {
		h.handleReportError(w, err, "failed to submit report")
		return
	}

	h.applyGrants(r, result.Grants)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httperrors.Write(w, status, dto.SubmitReportResponse{
		Report:  h.mapReport(r, result.Report),
		Created: result.Created,
	})
}

func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	report, err := h.reports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleReportError(w, err, "failed to load report")
		return
	}

	httperrors.Write(w, http.StatusOK, h.mapReport(r, report))
}

func (h *ReportsHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon query parameters are required")
		return
	}

	radius := 0.0
	if raw := r.URL.Query().Get("radius_m"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "radius_m must be a number")
			return
		}
		radius = parsed
	}

	matches, err := h.reports.Nearby(r.Context(), lat, lon, radius)
	if err != nil {
		h.handleReportError(w, err, "failed to load nearby reports")
		return
	}

	reports := make([]dto.NearbyReportResponse, 0, len(matches))
	for _, match := range matches {
		reports = append(reports, dto.NearbyReportResponse{
			Report:         h.mapReport(r, match.Report),
			DistanceMeters: match.DistanceMeters,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.NearbyResponse{Reports: reports})
}

func (h *ReportsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	var req dto.ConfirmReportRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	result, err := h.reports.Confirm(r.Context(), chi.URLParam(r, "id"), identity.ActorID, req.PhotoURL)
	if err != nil {
		h.handleReportError(w, err, "failed to confirm report")
		return
	}

	h.applyGrants(r, result.Grants)
	httperrors.Write(w, http.StatusOK, h.mapReport(r, result.Report))
}

func (h *ReportsHandler) ReportRemoval(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.reports == nil {
		writeInternal(w, "REPORTS_SERVICE_UNAVAILABLE", "reports service is unavailable")
		return
	}

	result, err := h.reports.ReportRemoval(r.Context(), chi.URLParam(r, "id"), identity.ActorID)
	if err != nil {
		h.handleReportError(w, err, "failed to report removal")
		return
	}

	httperrors.Write(w, http.StatusOK, h.mapReport(r, result.Report))
}

func (h *ReportsHandler) FlagPhoto(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.photos == nil {
		writeInternal(w, "PHOTOS_SERVICE_UNAVAILABLE", "photos service is unavailable")
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "photo index must be an integer")
		return
	}

	var req dto.FlagPhotoRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
			return
		}
	}

	photo, err := h.photos.FlagPhoto(r.Context(), chi.URLParam(r, "id"), index, identity.ActorID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, photossvc.ErrInvalidInput):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid photo flag request")
		case errors.Is(err, photossvc.ErrReportNotFound):
			writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
		case errors.Is(err, photossvc.ErrPhotoNotFound):
			writeNotFound(w, "PHOTO_NOT_FOUND", "photo not found")
		case errors.Is(err, photossvc.ErrAlreadyFlagged):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "ALREADY_FLAGGED",
				Message: "photo already flagged by this user",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to flag photo")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FlagPhotoResponse{
		Photo:      h.mapPhoto(r, photo),
		FlagsCount: len(photo.AbuseReports),
		Hidden:     photo.IsHidden,
	})
}

func (h *ReportsHandler) handleReportError(w http.ResponseWriter, err error, fallback string) {
	var rateErr *reportssvc.RateLimitedError
	switch {
	case errors.Is(err, reportssvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid report request")
	case errors.Is(err, reportssvc.ErrNotFound):
		writeNotFound(w, "REPORT_NOT_FOUND", "report not found")
	case errors.Is(err, reportssvc.ErrAlreadyConfirmed):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_CONFIRMED",
			Message: "report already confirmed by this user",
		})
	case errors.Is(err, reportssvc.ErrAlreadyReported):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_REPORTED",
			Message: "removal already reported by this user",
		})
	case errors.Is(err, reportssvc.ErrAlreadyRemoved):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "ALREADY_REMOVED",
			Message: "report is already removed",
		})
	case errors.Is(err, reportssvc.ErrRemoved):
		httperrors.Write(w, http.StatusGone, httperrors.APIError{
			Code:    "REPORT_REMOVED",
			Message: "report has been removed",
		})
	case errors.As(err, &rateErr):
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many submissions, slow down",
			RetryAfterSec: rateErr.RetryAfterSec,
		})
	default:
		h.logger.Error("report request failed", zap.Error(err))
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}

// applyGrants credits points earned by the mutation. The report change is
// already persisted, so a failed credit is logged instead of failing the
// request.
func (h *ReportsHandler) applyGrants(r *http.Request, grants []model.PointsGrant) {
	if h.points == nil || len(grants) == 0 {
		return
	}
	if err := h.points.Apply(r.Context(), grants); err != nil {
		h.logger.Warn("failed to apply point grants", zap.Error(err))
	}
}

func (h *ReportsHandler) mapReport(r *http.Request, report model.Report) dto.ReportResponse {
	photos := make([]dto.PhotoResponse, 0, len(report.Photos))
	for _, photo := range report.Photos {
		photos = append(photos, h.mapPhoto(r, photo))
	}

	primaryURL := ""
	if primary := photossvc.PrimaryPhoto(report); primary != nil && !primary.IsHidden {
		primaryURL = h.mapPhoto(r, *primary).URL
	}

	return dto.ReportResponse{
		ID:                  report.ID,
		Type:                string(report.Type),
		Lat:                 report.Lat,
		Lon:                 report.Lon,
		Status:              string(report.Status),
		IsPermanent:         report.IsPermanent,
		ConfirmationsCount:  len(report.Confirmations),
		RemovalReportsCount: len(report.RemovalReports),
		Photos:              photos,
		PrimaryPhotoURL:     primaryURL,
		ExpiresAt:           report.ExpiresAt,
		CreatedAt:           report.CreatedAt,
		UpdatedAt:           report.UpdatedAt,
	}
}

// mapPhoto keeps hidden photos in the response so that photo indexes stay
// stable for flagging, but blanks their URL.
func (h *ReportsHandler) mapPhoto(r *http.Request, photo model.Photo) dto.PhotoResponse {
	url := photo.URL
	if photo.IsHidden {
		url = ""
	} else if h.media != nil {
		resolved, err := h.media.ResolveViewURL(r.Context(), photo.URL)
		if err != nil {
			h.logger.Warn("failed to presign photo url", zap.Error(err))
		} else {
			url = resolved
		}
	}

	return dto.PhotoResponse{
		URL:        url,
		ReporterID: photo.ReporterID,
		IsHidden:   photo.IsHidden,
		FlagsCount: len(photo.AbuseReports),
		CreatedAt:  photo.CreatedAt,
	}
}
