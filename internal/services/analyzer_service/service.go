package analyzer_service

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/interfaces/services"
	"github.com/sunr3d/project-intake/models"
)

var _ services.Analyzer = (*analyzerService)(nil)

type analyzerService struct {
	logger             *zap.Logger
	sampleSizeLimit    int64
	largeFileThreshold int64
	classifier         *classifier
}

func New(log *zap.Logger, cfg *config.Config) services.Analyzer {
	return &analyzerService{
		logger:             log,
		sampleSizeLimit:    cfg.SampleSizeLimit,
		largeFileThreshold: cfg.LargeFileThreshold,
		classifier:         newClassifier(cfg.CategoryOverrides),
	}
}

func (s *analyzerService) Classify(filename string) models.Category {
	return s.classifier.classify(filename)
}

// Analyze never fails: unreadable entries are logged and skipped, and an
// unreadable root yields an empty structure.
func (s *analyzerService) Analyze(workspaceRoot string) *models.ProjectStructure {
	structure := models.NewProjectStructure()

	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		s.logger.Warn("некорректный путь рабочей директории", zap.String("root", workspaceRoot), zap.Error(err))
		return structure
	}
	realRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = resolved
	}

	err = filepath.WalkDir(realRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == realRoot {
				return err
			}
			s.logger.Warn("не удалось прочитать элемент рабочей директории", zap.String("path", path), zap.Error(err))
			return nil
		}

		rel, err := filepath.Rel(realRoot, path)
		if err != nil {
			s.logger.Warn("не удалось вычислить относительный путь", zap.String("path", path), zap.Error(err))
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				structure.Directories = append(structure.Directories, rel)
			}
			return nil
		}

		info, err := s.statFile(realRoot, path, d)
		if err != nil {
			s.logger.Warn("файл пропущен при анализе", zap.String("path", rel), zap.Error(err))
			return nil
		}

		s.add(structure, path, rel, info.Size())
		return nil
	})
	if err != nil {
		s.logger.Warn("не удалось обойти рабочую директорию", zap.String("root", root), zap.Error(err))
	}

	s.logger.Info("структура проекта проанализирована",
		zap.String("root", root),
		zap.Int("total_files", structure.TotalFiles),
		zap.Int64("total_size", structure.TotalSize),
		zap.Int("directories", len(structure.Directories)),
		zap.Int("sampled", len(structure.Content)),
	)
	return structure
}

// statFile resolves symlinks that stay inside the workspace and refuses
// anything that is not a regular file.
func (s *analyzerService) statFile(root, path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil, err
		}
		if rel, err := filepath.Rel(root, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: ссылка ведёт за пределы рабочей директории", ErrUnsafeLink)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, info.Mode().Type())
	}
	return info, nil
}

func (s *analyzerService) add(structure *models.ProjectStructure, path, rel string, size int64) {
	category := s.classifier.classify(rel)
	entry := models.WorkspaceEntry{
		Path:          rel,
		Size:          size,
		Extension:     extensionOf(rel),
		Type:          category,
		FormattedSize: models.FormatSize(size),
	}

	binary := false
	if category.Sampled() && size < s.sampleSizeLimit {
		content, isText, err := s.sample(path, size)
		if err != nil {
			s.logger.Warn("не удалось прочитать содержимое файла", zap.String("path", rel), zap.Error(err))
		} else {
			entry.Content = &content
			structure.Content[rel] = content
			binary = !isText
		}
	}

	structure.Files = append(structure.Files, entry)
	structure.TotalFiles++
	structure.TotalSize += size
	structure.FileTypes[entry.Extension]++
	structure.FileCategories[category]++

	if size > s.largeFileThreshold {
		structure.LargeFiles = append(structure.LargeFiles, entry)
	}
	if binary {
		structure.BinaryFiles = append(structure.BinaryFiles, entry)
	}
	switch {
	case category == models.CategoryCode:
		structure.CodeFiles = append(structure.CodeFiles, entry)
	case category.IsMedia():
		structure.MediaFiles = append(structure.MediaFiles, entry)
	}
}

// sample returns the file as text, or the binary sentinel when no supported
// encoding produces plausible text.
func (s *analyzerService) sample(path string, size int64) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.sampleSizeLimit))
	if err != nil {
		return "", false, err
	}

	if text, _, ok := decodeText(data); ok {
		return text, true, nil
	}
	return BinarySentinel(size), false, nil
}

func (s *analyzerService) ReadContent(path string, limit int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegular, info.Mode().Type())
	}
	if info.Size() > limit {
		return TooLargeSentinel(info.Size()), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	if text, _, ok := decodeText(data); ok {
		return text, nil
	}
	return BinarySentinel(info.Size()), nil
}

func TooLargeSentinel(size int64) string {
	return fmt.Sprintf("[File too large: %s]", models.FormatSize(size))
}

func BinarySentinel(size int64) string {
	return fmt.Sprintf("[Binary file: %s]", models.FormatSize(size))
}
