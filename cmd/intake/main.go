package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/entrypoint"
	"github.com/sunr3d/project-intake/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("не удалось прочитать .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("ошибка инициализации логгера: %v", err)
	}
	defer zl.Sync()

	if err := entrypoint.Run(cfg, zl); err != nil {
		zl.Fatal("сервис остановлен с ошибкой", zap.Error(err))
	}
}
