package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/accessmap/backend/internal/config"
	authsvc "github.com/accessmap/backend/internal/services/auth"
	mediasvc "github.com/accessmap/backend/internal/services/media"
	photossvc "github.com/accessmap/backend/internal/services/photos"
	pointssvc "github.com/accessmap/backend/internal/services/points"
	reportssvc "github.com/accessmap/backend/internal/services/reports"
	"github.com/accessmap/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	ReportsService *reportssvc.Service
	PhotosService  *photossvc.Service
	PointsService  *pointssvc.Service
	MediaService   *mediasvc.Service
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	reportsHandler := handlers.NewReportsHandler(deps.ReportsService, deps.PhotosService, deps.Logger)
	reportsHandler.AttachPoints(deps.PointsService)
	reportsHandler.AttachMedia(deps.MediaService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	pointsHandler := handlers.NewPointsHandler(deps.PointsService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/anonymous", authHandler.Anonymous)

		r.Get("/reports/nearby", reportsHandler.Nearby)
		r.Get("/reports/{id}", reportsHandler.Get)
		r.With(authMW).Post("/reports", reportsHandler.Submit)
		r.With(authMW).Post("/reports/{id}/confirm", reportsHandler.Confirm)
		r.With(authMW).Post("/reports/{id}/removal", reportsHandler.ReportRemoval)
		r.With(authMW).Post("/reports/{id}/photos/{index}/flag", reportsHandler.FlagPhoto)

		r.With(authMW).Post("/media/photos/presign", mediaHandler.PresignPhoto)
		r.With(authMW).Get("/users/me/points", pointsHandler.Me)
	})
}
