package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	server *http.Server
	logger *zap.Logger
}

// New builds the HTTP server. timeout bounds reading and writing a whole
// request, so it has to cover the largest accepted upload.
func New(port string, timeout time.Duration, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       timeout,
			WriteTimeout:      timeout,
		},
		logger: logger,
	}
}

// Start serves until SIGINT/SIGTERM or ctx cancellation, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(done)

	serverErr := make(chan error, 1)

	go func() {
		s.logger.Info("Запуск HTTP сервера", zap.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка HTTP сервера: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case sig := <-done:
		s.logger.Info("Получен сигнал завершения", zap.String("signal", sig.String()))
	case <-ctx.Done():
		s.logger.Info("Контекст сервера отменён")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при завершении сервера: %w", err)
	}

	s.logger.Info("HTTP сервер успешно остановлен")
	return nil
}
