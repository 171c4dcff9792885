package intake_service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/models"
)

func (s *intakeService) ReadFile(ctx context.Context, sessionID, relPath string) (*models.FileContent, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	rel, err := cleanRelPath(relPath)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}

	full, err := securejoin.SecureJoin(session.WorkspacePath, rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, rel)
	}

	content, err := s.analyzer.ReadContent(full, s.cfg.FileContentLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOpenFailed, err)
	}

	return &models.FileContent{
		Path:          rel,
		Content:       content,
		Size:          info.Size(),
		FormattedSize: models.FormatSize(info.Size()),
		Type:          s.analyzer.Classify(rel),
	}, nil
}

// BuildArchive zips the session workspace into a temporary file in the
// session staging directory and returns its path. The caller removes the file.
func (s *intakeService) BuildArchive(ctx context.Context, sessionID string) (string, error) {
	if err := checkCtx(ctx); err != nil {
		return "", err
	}

	session, err := s.repo.Acquire(ctx, sessionID)
	if err != nil {
		return "", storeErr(err)
	}
	defer func() {
		if err := s.repo.Release(ctx, sessionID); err != nil {
			s.logger.Warn("не удалось освободить сессию", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	if err := os.MkdirAll(session.StagingPath, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMkdirFailed, err)
	}
	f, err := os.CreateTemp(session.StagingPath, "workspace_*.zip")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
	}

	files, err := buildZip(ctx, session.WorkspacePath, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: %v", ErrArchiveBuild, err)
	}

	s.logger.Info("архив рабочей директории собран",
		zap.String("session_id", sessionID),
		zap.String("path", f.Name()),
		zap.Int("files", files),
	)
	return f.Name(), nil
}

// buildZip writes every regular file under root into w. Directories are
// implied by member names; symlinks are left out.
func buildZip(ctx context.Context, root string, w io.Writer) (int, error) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	files := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := checkCtx(ctx); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		dst, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
		}
		src, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFileOpenFailed, err)
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFileCopyFailed, err)
		}

		files++
		return nil
	})
	if err != nil {
		zw.Close()
		return files, err
	}
	return files, zw.Close()
}
