package extractor_service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/interfaces/services"
	"github.com/sunr3d/project-intake/models"
)

var _ services.Extractor = (*extractorService)(nil)

type extractorService struct {
	logger      *zap.Logger
	cfg         *config.Config
	archiveExts map[string]struct{}
}

func New(log *zap.Logger, cfg *config.Config) services.Extractor {
	exts := make(map[string]struct{}, len(cfg.ArchiveExtensions))
	for _, ext := range cfg.ArchiveExtensions {
		exts[strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")] = struct{}{}
	}
	return &extractorService{
		logger:      log,
		cfg:         cfg,
		archiveExts: exts,
	}
}

func (s *extractorService) IsArchive(filename string) bool {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return false
	}
	_, ok := s.archiveExts[strings.ToLower(filename[idx+1:])]
	return ok
}

// Extract validates the whole archive manifest before writing anything into
// targetDir. Rejections are reported through the result; the returned error is
// reserved for a missing archive or an unusable target directory.
func (s *extractorService) Extract(archivePath, targetDir string) (models.ExtractionResult, error) {
	result := models.ExtractionResult{ExtractedPaths: []string{}}

	info, err := os.Stat(archivePath)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrArchiveNotFound, err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("%w: %s является директорией", ErrArchiveNotFound, archivePath)
	}

	if info.Size() > s.cfg.MaxUploadSize {
		return s.reject(archivePath, fmt.Errorf("%w: %d байт (максимум %d)", ErrArchiveTooLarge, info.Size(), s.cfg.MaxUploadSize)), nil
	}

	format, err := detectFormat(archivePath)
	if err != nil {
		return s.reject(archivePath, err), nil
	}

	archive, err := openArchive(archivePath, format)
	if err != nil {
		return s.reject(archivePath, err), nil
	}
	defer archive.Close()

	stats, err := validateManifest(archive, limits{
		maxExpandedSize: s.cfg.MaxExpandedSize,
		maxNameLength:   s.cfg.MaxFilenameLength,
	})
	if err != nil {
		res := s.reject(archivePath, err)
		res.Format = format
		return res, nil
	}

	root, err := filepath.Abs(targetDir)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}

	paths := s.extractMembers(archive, root)

	s.logger.Info("архив распакован",
		zap.String("archive", filepath.Base(archivePath)),
		zap.String("format", string(format)),
		zap.Int("members", stats.members),
		zap.Int("files_declared", stats.files),
		zap.Int("files_written", len(paths)),
		zap.Int64("expanded_size", stats.totalSize),
	)

	result.Success = true
	result.Format = format
	result.ExtractedPaths = paths
	return result, nil
}

func (s *extractorService) reject(archivePath string, err error) models.ExtractionResult {
	kind := kindOf(err)
	s.logger.Warn("архив отклонён",
		zap.String("archive", filepath.Base(archivePath)),
		zap.String("reason", string(kind)),
		zap.Error(err),
	)
	return models.ExtractionResult{
		Success:        false,
		Error:          kind,
		Detail:         err.Error(),
		ExtractedPaths: []string{},
	}
}

// extractMembers writes files in archive order. A later member with the same
// name replaces the earlier file and is listed once.
func (s *extractorService) extractMembers(archive archiveReader, root string) []string {
	order := []string{}
	written := make(map[string]bool)

	err := archive.walk(func(m member, open openFunc) error {
		name, err := cleanMemberName(m.name)
		if err != nil || name == "" {
			return nil
		}

		switch m.typ {
		case memberDir:
			dst, err := securejoin.SecureJoin(root, name)
			if err == nil {
				err = os.MkdirAll(dst, 0755)
			}
			if err != nil {
				s.logger.Warn("не удалось создать директорию из архива", zap.String("member", name), zap.Error(err))
			}
		case memberFile:
			if written[name] {
				s.logger.Warn("элемент архива перезаписывает ранее распакованный файл", zap.String("member", name))
			}
			if err := writeMember(root, name, m.size, open); err != nil {
				s.logger.Warn("не удалось распаковать элемент архива", zap.String("member", name), zap.Error(err))
				if written[name] && !memberExists(root, name) {
					written[name] = false
				}
				return nil
			}
			if _, seen := written[name]; !seen {
				order = append(order, name)
			}
			written[name] = true
		default:
			s.logger.Debug("элемент архива пропущен", zap.String("member", name), zap.String("type", m.typ.String()))
		}
		return nil
	})

	paths := make([]string, 0, len(order))
	for _, name := range order {
		if written[name] {
			paths = append(paths, name)
		}
	}
	if err != nil {
		s.logger.Warn("распаковка прервана", zap.Int("files_written", len(paths)), zap.Error(err))
	}

	return paths
}

func memberExists(root, name string) bool {
	dst, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return false
	}
	info, err := os.Stat(dst)
	return err == nil && info.Mode().IsRegular()
}

func writeMember(root, name string, size int64, open openFunc) (err error) {
	dst, err := securejoin.SecureJoin(root, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}

	rc, err := open()
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	n, err := io.Copy(f, io.LimitReader(rc, size+1))
	if err != nil {
		return err
	}
	if n > size {
		return fmt.Errorf("%w: %s", ErrMemberOversized, name)
	}
	return nil
}
