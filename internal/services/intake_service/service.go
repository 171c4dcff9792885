package intake_service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/infra/inmem"
	"github.com/sunr3d/project-intake/internal/interfaces/infra"
	"github.com/sunr3d/project-intake/internal/interfaces/services"
	"github.com/sunr3d/project-intake/models"
)

var _ services.IntakeService = (*intakeService)(nil)

type intakeService struct {
	repo      infra.SessionStore
	extractor services.Extractor
	analyzer  services.Analyzer
	logger    *zap.Logger
	cfg       *config.Config
	allowed   map[string]struct{}
	now       func() time.Time
}

func New(
	log *zap.Logger,
	cfg *config.Config,
	repo infra.SessionStore,
	extractor services.Extractor,
	analyzer services.Analyzer,
) services.IntakeService {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}

	return &intakeService{
		repo:      repo,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    log,
		cfg:       cfg,
		allowed:   allowed,
		now:       time.Now,
	}
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
		return nil
	}
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, inmem.ErrSessionNotFound), errors.Is(err, inmem.ErrSessionIDEmpty):
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	case errors.Is(err, inmem.ErrSessionBusy):
		return ErrSessionBusy
	default:
		return fmt.Errorf("%w: %v", ErrSessionGet, err)
	}
}

func (s *intakeService) CreateSession(ctx context.Context) (*models.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	workspace := filepath.Join(s.cfg.WorkspaceDir, id)
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}

	now := s.now()
	session := &models.Session{
		ID:             id,
		WorkspacePath:  workspace,
		StagingPath:    filepath.Join(s.cfg.UploadDir, id),
		CreatedAt:      now,
		LastActivity:   now,
		UploadedFiles:  make([]models.UploadedFile, 0),
		ExtractedFiles: make([]string, 0),
	}

	if err := s.repo.SaveSession(ctx, session); err != nil {
		os.RemoveAll(workspace)
		return nil, fmt.Errorf("%w: %v", ErrSessionSave, err)
	}

	s.logger.Info("сессия создана", zap.String("session_id", id), zap.String("workspace", workspace))
	return session, nil
}

// Upload stores every accepted file in the session workspace, unpacks
// archives through the staging directory and re-analyzes the workspace.
// Per-file problems become warnings; an empty sessionID opens a new session.
func (s *intakeService) Upload(ctx context.Context, sessionID string, files []services.UploadFile) (*services.UploadReport, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if sessionID == "" {
		created, err := s.CreateSession(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = created.ID
	}

	session, err := s.repo.Acquire(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer func() {
		if err := s.repo.Release(ctx, sessionID); err != nil {
			s.logger.Warn("не удалось освободить сессию", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	start := s.now()
	report := &services.UploadReport{
		SessionID:      sessionID,
		UploadedFiles:  make([]models.UploadedFile, 0, len(files)),
		ExtractedFiles: make([]string, 0),
		Warnings:       make([]string, 0),
	}

	for _, file := range files {
		if err := checkCtx(ctx); err != nil {
			return nil, err
		}
		if strings.TrimSpace(file.Name) == "" {
			continue
		}

		uploaded, extracted, err := s.ingest(session, file)
		if err != nil {
			s.logger.Warn("файл не принят",
				zap.String("session_id", sessionID),
				zap.String("filename", file.Name),
				zap.Error(err),
			)
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", file.Name, err.Error()))
		}
		if uploaded != nil {
			report.UploadedFiles = append(report.UploadedFiles, *uploaded)
		}
		report.ExtractedFiles = append(report.ExtractedFiles, extracted...)
	}

	report.Structure = s.analyzer.Analyze(session.WorkspacePath)

	session.Structure = report.Structure
	session.UploadedFiles = append(session.UploadedFiles, report.UploadedFiles...)
	session.ExtractedFiles = append(session.ExtractedFiles, report.ExtractedFiles...)
	session.Warnings = report.Warnings
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionSave, err)
	}

	s.logger.Info("загрузка обработана",
		zap.String("session_id", sessionID),
		zap.Int("uploaded", len(report.UploadedFiles)),
		zap.Int("extracted", len(report.ExtractedFiles)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Int("total_files", report.Structure.TotalFiles),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return report, nil
}

// ingest saves one upload. An archive goes to staging, is extracted into the
// workspace and the staging copy is removed whatever the outcome.
func (s *intakeService) ingest(session *models.Session, file services.UploadFile) (*models.UploadedFile, []string, error) {
	if !s.isAllowed(file.Name) {
		return nil, nil, ErrUnsupportedFile
	}

	filename := sanitizeFilename(file.Name, s.now())
	archive := s.extractor.IsArchive(filename)

	dir := session.WorkspacePath
	if archive {
		dir = session.StagingPath
	}
	dst := filepath.Join(dir, filename)

	size, err := s.saveFile(dir, dst, file.Reader)
	if err != nil {
		return nil, nil, err
	}

	uploaded := &models.UploadedFile{
		Filename:      filename,
		OriginalName:  file.Name,
		Size:          size,
		FormattedSize: models.FormatSize(size),
		Type:          s.analyzer.Classify(filename),
	}
	if !archive {
		return uploaded, nil, nil
	}

	defer func() {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			s.logger.Error("не удалось удалить архив из буфера",
				zap.String("session_id", session.ID),
				zap.String("path", dst),
				zap.Error(err),
			)
		}
	}()

	result, err := s.extractor.Extract(dst, session.WorkspacePath)
	if err != nil {
		return uploaded, nil, fmt.Errorf("%w: %v", ErrExtractFailed, err)
	}
	if !result.Success {
		return uploaded, nil, fmt.Errorf("%w: %s: %s", ErrExtractFailed, result.Error, result.Detail)
	}

	s.logger.Info("архив распакован",
		zap.String("session_id", session.ID),
		zap.String("archive", filename),
		zap.String("format", string(result.Format)),
		zap.Int("files", len(result.ExtractedPaths)),
	)
	return uploaded, result.ExtractedPaths, nil
}

func (s *intakeService) saveFile(dir, dst string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.cfg.MaxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.cfg.MaxUploadSize {
		err = fmt.Errorf("%w: больше %s", ErrFileTooLarge, models.FormatSize(s.cfg.MaxUploadSize))
	} else if err != nil {
		err = fmt.Errorf("%w: %v", ErrFileCopyFailed, err)
	}
	if err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}

func (s *intakeService) GetStructure(ctx context.Context, sessionID string) (*models.ProjectStructure, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if session.Structure == nil {
		return nil, ErrNoStructure
	}

	return session.Structure, nil
}

func (s *intakeService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	session, err := s.repo.Acquire(ctx, sessionID)
	if err != nil {
		return storeErr(err)
	}

	return s.drop(ctx, session)
}

// drop removes the session directories and the session itself. The caller
// must hold the session.
func (s *intakeService) drop(ctx context.Context, session *models.Session) error {
	for _, dir := range []string{session.WorkspacePath, session.StagingPath} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			s.repo.Release(ctx, session.ID)
			return fmt.Errorf("%w: %v", ErrRemoveFailed, err)
		}
	}

	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *intakeService) CleanupExpired(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}

	expired, err := s.repo.ListExpired(ctx, s.cfg.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSessionGet, err)
	}

	removed := 0
	for _, candidate := range expired {
		session, err := s.repo.Acquire(ctx, candidate.ID)
		if err != nil {
			continue
		}
		if err := s.drop(ctx, session); err != nil {
			s.logger.Error("не удалось удалить просроченную сессию",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("просроченные сессии удалены", zap.Int("removed", removed))
	}
	return removed, nil
}

func (s *intakeService) CountSessions(ctx context.Context) (int, error) {
	return s.repo.CountSessions(ctx)
}
