package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/api"
	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/infra/inmem"
	"github.com/sunr3d/project-intake/internal/interfaces/services"
	"github.com/sunr3d/project-intake/internal/middleware"
	"github.com/sunr3d/project-intake/internal/server"
	"github.com/sunr3d/project-intake/internal/services/analyzer_service"
	"github.com/sunr3d/project-intake/internal/services/extractor_service"
	"github.com/sunr3d/project-intake/internal/services/intake_service"
)

func Run(cfg *config.Config, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для загрузок: %w", err)
	} else {
		log.Info("директория для загрузок создана", zap.String("path", cfg.UploadDir))
	}
	if err := os.MkdirAll(cfg.WorkspaceDir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для рабочих пространств: %w", err)
	} else {
		log.Info("директория для рабочих пространств создана", zap.String("path", cfg.WorkspaceDir))
	}

	db := inmem.New(log)
	extractor := extractor_service.New(log, cfg)
	analyzer := analyzer_service.New(log, cfg)
	svc := intake_service.New(log, cfg, db, extractor, analyzer)
	controller := api.New(svc, log, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runJanitor(ctx, svc, cfg.CleanupInterval, log)

	srv := server.New(cfg.HTTPPort, cfg.HTTPTimeout, NewRouter(controller, cfg, log), log)
	return srv.Start(ctx)
}

func NewRouter(controller *api.IntakeAPI, cfg *config.Config, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions", controller.CreateSession)
	mux.HandleFunc("DELETE /sessions", controller.DeleteSession)
	mux.HandleFunc("POST /upload", controller.Upload)
	mux.HandleFunc("GET /structure", controller.GetStructure)
	mux.HandleFunc("GET /file", controller.GetFile)
	mux.HandleFunc("GET /download", controller.DownloadArchive)
	mux.HandleFunc("GET /health", controller.Health)

	router := http.Handler(mux)
	router = middleware.MultipartValidator()(router)
	router = middleware.BodyLimit(cfg.MaxUploadSize)(router)
	router = middleware.ReqLogger(log)(router)
	router = middleware.Recovery(log)(router)
	return router
}

func runJanitor(ctx context.Context, svc services.IntakeService, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupExpired(ctx); err != nil {
				log.Error("ошибка очистки просроченных сессий", zap.Error(err))
			}
		}
	}
}
