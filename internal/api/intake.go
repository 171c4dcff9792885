package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/interfaces/services"
	"github.com/sunr3d/project-intake/internal/services/intake_service"
	"github.com/sunr3d/project-intake/models"
)

const (
	uploadField     = "files"
	multipartMemory = 32 << 20
	topFileTypes    = 10
)

type IntakeAPI struct {
	service services.IntakeService
	logger  *zap.Logger
	cfg     *config.Config
}

func New(service services.IntakeService, logger *zap.Logger, cfg *config.Config) *IntakeAPI {
	return &IntakeAPI{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// POST /sessions
func (h *IntakeAPI) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.logger.Error("ошибка создания сессии", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, createSessionResp{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
	})
}

// POST /upload?session_id={session_id}
func (h *IntakeAPI) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.Warn("ошибка разбора multipart запроса", zap.Error(err))
		http.Error(w, "Некорректный запрос: не удалось разобрать multipart/form-data", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		http.Error(w, "Некорректный запрос: файлы не переданы", http.StatusBadRequest)
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Error("не удалось открыть загруженный файл", zap.String("filename", fh.Filename), zap.Error(err))
			http.Error(w, "Внутренняя ошибка сервера при чтении файла", http.StatusInternalServerError)
			closeAll(files)
			return
		}
		files = append(files, services.UploadFile{Name: fh.Filename, Reader: f})
	}
	defer closeAll(files)

	report, err := h.service.Upload(r.Context(), r.URL.Query().Get("session_id"), files)
	if err != nil {
		h.logger.Error("ошибка обработки загрузки", zap.Error(err))
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	h.writeJSON(w, http.StatusOK, uploadResp{
		Status:           "success",
		SessionID:        report.SessionID,
		UploadedFiles:    report.UploadedFiles,
		ExtractedFiles:   report.ExtractedFiles,
		ProjectStructure: summarize(report.Structure),
		Warnings:         report.Warnings,
		ProcessingTime:   math.Round(time.Since(start).Seconds()*100) / 100,
	})
}

// GET /structure?session_id={session_id}
func (h *IntakeAPI) GetStructure(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Некорректный запрос: отсутствует session_id", http.StatusBadRequest)
		return
	}

	structure, err := h.service.GetStructure(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("ошибка получения структуры проекта", zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	h.writeJSON(w, http.StatusOK, structure)
}

// GET /file?session_id={session_id}&path={path}
func (h *IntakeAPI) GetFile(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	filePath := r.URL.Query().Get("path")
	if sessionID == "" || filePath == "" {
		http.Error(w, "Некорректный запрос: требуются session_id и path", http.StatusBadRequest)
		return
	}

	file, err := h.service.ReadFile(r.Context(), sessionID, filePath)
	if err != nil {
		h.logger.Warn("ошибка чтения файла сессии",
			zap.String("session_id", sessionID),
			zap.String("path", filePath),
			zap.Error(err),
		)
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	h.writeJSON(w, http.StatusOK, file)
}

// GET /download?session_id={session_id}
func (h *IntakeAPI) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Некорректный запрос: отсутствует session_id", http.StatusBadRequest)
		return
	}

	zipPath, err := h.service.BuildArchive(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("ошибка сборки архива рабочей директории", zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, err.Error(), statusOf(err))
		return
	}
	defer func() {
		if err := os.Remove(zipPath); err != nil {
			h.logger.Warn("не удалось удалить временный архив", zap.String("path", zipPath), zap.Error(err))
		}
	}()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"workspace_%s.zip\"", sessionID))

	http.ServeFile(w, r, zipPath)
}

// DELETE /sessions?session_id={session_id}
func (h *IntakeAPI) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "Некорректный запрос: отсутствует session_id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Warn("ошибка удаления сессии", zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, err.Error(), statusOf(err))
		return
	}

	h.writeJSON(w, http.StatusOK, deleteSessionResp{
		Success: true,
		Message: fmt.Sprintf("Сессия \"%s\" удалена", sessionID),
	})
}

// GET /health
func (h *IntakeAPI) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountSessions(r.Context())
	if err != nil {
		h.logger.Error("ошибка подсчёта сессий", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, healthResp{Status: "ok", Sessions: count})
}

func (h *IntakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("ошибка кодирования JSON ответа", zap.Error(err))
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, intake_service.ErrNoFiles), errors.Is(err, intake_service.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, intake_service.ErrSessionNotFound), errors.Is(err, intake_service.ErrNoStructure),
		errors.Is(err, intake_service.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, intake_service.ErrSessionBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func closeAll(files []services.UploadFile) {
	for _, f := range files {
		if c, ok := f.Reader.(multipart.File); ok {
			c.Close()
		}
	}
}

func summarize(s *models.ProjectStructure) structureSummary {
	return structureSummary{
		TotalFiles:      s.TotalFiles,
		TotalSize:       s.TotalSize,
		FormattedSize:   models.FormatSize(s.TotalSize),
		FileCategories:  s.FileCategories,
		FileTypes:       topTypes(s.FileTypes, topFileTypes),
		CodeFilesCount:  len(s.CodeFiles),
		MediaFilesCount: len(s.MediaFiles),
		LargeFilesCount: len(s.LargeFiles),
	}
}

// topTypes keeps the n most frequent extensions, ties broken by name.
func topTypes(types map[string]int, n int) map[string]int {
	keys := make([]string, 0, len(types))
	for ext := range types {
		keys = append(keys, ext)
	}
	sort.Slice(keys, func(i, j int) bool {
		if types[keys[i]] != types[keys[j]] {
			return types[keys[i]] > types[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	top := make(map[string]int, len(keys))
	for _, ext := range keys {
		top[ext] = types[ext]
	}
	return top
}
