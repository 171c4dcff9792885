package analyzer_service

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/models"
)

func setupTestService(t *testing.T, mutate func(cfg *config.Config)) (*analyzerService, string) {
	cfg := &config.Config{
		SampleSizeLimit:    100 * 1024,
		LargeFileThreshold: 10 * 1024 * 1024,
	}
	if mutate != nil {
		mutate(cfg)
	}
	return New(zaptest.NewLogger(t), cfg).(*analyzerService), t.TempDir()
}

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, data, 0644))
}

func assertInvariants(t *testing.T, s *models.ProjectStructure) {
	t.Helper()
	assert.Equal(t, len(s.Files), s.TotalFiles)

	var size int64
	for _, f := range s.Files {
		size += f.Size
	}
	assert.Equal(t, size, s.TotalSize)

	categories := 0
	for _, n := range s.FileCategories {
		categories += n
	}
	assert.Equal(t, s.TotalFiles, categories)

	types := 0
	for _, n := range s.FileTypes {
		types += n
	}
	assert.Equal(t, s.TotalFiles, types)
}

func TestAnalyzerService_Analyze_NotesAndPhoto(t *testing.T) {
	service, root := setupTestService(t, nil)

	notes := strings.Repeat("Some notes.\n", 17)[:200]
	writeFile(t, root, "notes.md", []byte(notes))
	photo := bytes.Repeat([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff}, 2*1024*1024/6)
	writeFile(t, root, "photo.png", photo)

	structure := service.Analyze(root)

	assertInvariants(t, structure)
	assert.Equal(t, 2, structure.TotalFiles)
	assert.Equal(t, map[models.Category]int{
		models.CategoryDocumentation: 1,
		models.CategoryImage:         1,
	}, structure.FileCategories)
	assert.Equal(t, map[string]string{"notes.md": notes}, structure.Content)
	assert.NotContains(t, structure.Content, "photo.png")
	require.Len(t, structure.MediaFiles, 1)
	assert.Equal(t, "photo.png", structure.MediaFiles[0].Path)
	assert.Empty(t, structure.CodeFiles)
}

func TestAnalyzerService_Analyze_Tree(t *testing.T) {
	service, root := setupTestService(t, func(cfg *config.Config) {
		cfg.LargeFileThreshold = 1024
	})

	writeFile(t, root, "src/main.go", []byte("package main\n"))
	writeFile(t, root, "src/lib/util.py", []byte("def f():\n    pass\n"))
	writeFile(t, root, "data/config.json", []byte(`{"k": "v"}`))
	writeFile(t, root, "data/blob.json", []byte("\x00\x01\x02binary"))
	writeFile(t, root, "media/song.mp3", bytes.Repeat([]byte{0xff}, 2048))
	writeFile(t, root, "Dockerfile", []byte("FROM scratch\n"))
	writeFile(t, root, "bin/tool", []byte{0x7f, 'E', 'L', 'F'})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	structure := service.Analyze(root)

	assertInvariants(t, structure)
	assert.Equal(t, 7, structure.TotalFiles)
	assert.ElementsMatch(t, []string{"bin", "data", "empty", "media", "src", "src/lib"}, structure.Directories)

	assert.Equal(t, 3, structure.FileCategories[models.CategoryCode])
	assert.Equal(t, 2, structure.FileCategories[models.CategoryData])
	assert.Equal(t, 1, structure.FileCategories[models.CategoryAudio])
	assert.Equal(t, 1, structure.FileCategories[models.CategoryOther])

	assert.Equal(t, 2, structure.FileTypes[".json"])
	assert.Equal(t, 2, structure.FileTypes[""])

	assert.Len(t, structure.CodeFiles, 3)
	assert.Len(t, structure.MediaFiles, 1)
	require.Len(t, structure.LargeFiles, 1)
	assert.Equal(t, "media/song.mp3", structure.LargeFiles[0].Path)

	assert.Equal(t, "package main\n", structure.Content["src/main.go"])
	assert.Equal(t, "FROM scratch\n", structure.Content["Dockerfile"])
	assert.Equal(t, "[Binary file: 9.0 B]", structure.Content["data/blob.json"])
	require.Len(t, structure.BinaryFiles, 1)
	assert.Equal(t, "data/blob.json", structure.BinaryFiles[0].Path)
	assert.NotContains(t, structure.Content, "bin/tool")
	assert.NotContains(t, structure.Content, "media/song.mp3")
}

func TestAnalyzerService_Analyze_SampleSizeLimit(t *testing.T) {
	service, root := setupTestService(t, func(cfg *config.Config) {
		cfg.SampleSizeLimit = 16
	})

	writeFile(t, root, "small.txt", []byte("tiny"))
	writeFile(t, root, "exact.txt", []byte(strings.Repeat("x", 16)))
	writeFile(t, root, "big.txt", []byte(strings.Repeat("x", 64)))

	structure := service.Analyze(root)

	assert.Equal(t, map[string]string{"small.txt": "tiny"}, structure.Content)
}

func TestAnalyzerService_Analyze_Idempotent(t *testing.T) {
	service, root := setupTestService(t, nil)

	writeFile(t, root, "a/b/c.go", []byte("package c\n"))
	writeFile(t, root, "a/readme.txt", []byte("read me"))
	writeFile(t, root, "z.png", []byte{1, 2, 3})

	first, err := json.Marshal(service.Analyze(root))
	require.NoError(t, err)
	second, err := json.Marshal(service.Analyze(root))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestAnalyzerService_Analyze_Symlinks(t *testing.T) {
	service, root := setupTestService(t, nil)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	writeFile(t, root, "real.txt", []byte("real"))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "alias.txt")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape.txt")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.txt"), filepath.Join(root, "broken.txt")))

	structure := service.Analyze(root)

	assertInvariants(t, structure)
	paths := make([]string, 0, len(structure.Files))
	for _, f := range structure.Files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"alias.txt", "real.txt"}, paths)
	assert.NotContains(t, structure.Content, "escape.txt")
}

func TestAnalyzerService_Analyze_SymlinkedRoot(t *testing.T) {
	service, root := setupTestService(t, nil)

	writeFile(t, root, "main.go", []byte("package main\n"))
	writeFile(t, root, "docs/notes.md", []byte("# notes\n"))
	link := filepath.Join(t.TempDir(), "ws")
	require.NoError(t, os.Symlink(root, link))

	direct := service.Analyze(root)
	linked := service.Analyze(link)

	assertInvariants(t, linked)
	assert.Equal(t, 2, direct.TotalFiles)
	assert.Equal(t, direct.TotalFiles, linked.TotalFiles)
	assert.Equal(t, []string{"docs"}, linked.Directories)
	assert.Equal(t, "# notes\n", linked.Content["docs/notes.md"])
}

func TestAnalyzerService_Analyze_MissingRoot(t *testing.T) {
	service, root := setupTestService(t, nil)

	structure := service.Analyze(filepath.Join(root, "does-not-exist"))

	assert.Equal(t, 0, structure.TotalFiles)
	assert.Empty(t, structure.Files)
	assert.NotNil(t, structure.Content)
}

func TestAnalyzerService_Analyze_JSONShape(t *testing.T) {
	service, root := setupTestService(t, nil)
	writeFile(t, root, "main.go", []byte("package main\n"))

	data, err := json.Marshal(service.Analyze(root))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"files", "directories", "total_files", "total_size", "file_types",
		"file_categories", "content", "large_files", "code_files", "media_files",
	} {
		assert.Contains(t, raw, key)
	}

	var files []map[string]any
	require.NoError(t, json.Unmarshal(raw["files"], &files))
	require.Len(t, files, 1)
	assert.Equal(t, map[string]any{
		"path":           "main.go",
		"size":           float64(13),
		"extension":      ".go",
		"type":           "code",
		"formatted_size": "13.0 B",
	}, files[0])
}

func TestAnalyzerService_ReadContent(t *testing.T) {
	service, root := setupTestService(t, nil)

	writeFile(t, root, "main.go", []byte("package main\n"))
	writeFile(t, root, "legacy.txt", []byte("caf\xe9"))
	writeFile(t, root, "blob.bin", []byte{0x00, 0x01, 0x02})
	writeFile(t, root, "big.txt", []byte(strings.Repeat("x", 2048)))

	content, err := service.ReadContent(filepath.Join(root, "main.go"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)

	content, err = service.ReadContent(filepath.Join(root, "legacy.txt"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "café", content)

	content, err = service.ReadContent(filepath.Join(root, "blob.bin"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "[Binary file: 3.0 B]", content)

	content, err = service.ReadContent(filepath.Join(root, "big.txt"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "[File too large: 2.0 KB]", content)

	_, err = service.ReadContent(root, 1024)
	assert.ErrorIs(t, err, ErrNotRegular)

	_, err = service.ReadContent(filepath.Join(root, "missing.txt"), 1024)
	assert.Error(t, err)
}
