package extractor_service

import (
	"archive/tar"
	"archive/zip"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sunr3d/project-intake/internal/config"
	"github.com/sunr3d/project-intake/internal/testutil"
	"github.com/sunr3d/project-intake/models"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxUploadSize:     500 << 20,
		MaxExpandedSize:   1 << 30,
		MaxFilenameLength: 255,
		ArchiveExtensions: []string{"zip", "tar", "gz", "tgz", "bz2", "tbz2", "xz", "txz", "7z"},
	}
}

func setupTestService(t *testing.T, cfg *config.Config) (*extractorService, string, string) {
	if cfg == nil {
		cfg = testConfig()
	}
	service := New(zaptest.NewLogger(t), cfg).(*extractorService)

	dir := t.TempDir()
	return service, filepath.Join(dir, "staging"), filepath.Join(dir, "workspace")
}

func assertInside(t *testing.T, root string, rel []string) {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)
	for _, p := range rel {
		full, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(p)))
		require.NoError(t, err)
		r, err := filepath.Rel(absRoot, full)
		require.NoError(t, err)
		assert.False(t, r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)), "path %s escapes %s", p, root)
		assert.FileExists(t, full)
	}
}

func TestExtractorService_Extract_ZipSuccess(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteZip(t, filepath.Join(staging, "project.zip"),
		testutil.Dir("src/"),
		testutil.File("src/main.go", "package main\n"),
		testutil.File("README.md", "# hello\n"),
		testutil.File("./docs/guide.txt", "guide"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.ErrorKindNone, res.Error)
	assert.Equal(t, models.FormatZip, res.Format)
	assert.Equal(t, []string{"src/main.go", "README.md", "docs/guide.txt"}, res.ExtractedPaths)
	assertInside(t, workspace, res.ExtractedPaths)

	data, err := os.ReadFile(filepath.Join(workspace, "src", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestExtractorService_Extract_TarFamilySuccess(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		format models.ArchiveFormat
	}{
		{"tar", "project.tar", models.FormatTar},
		{"tar.gz", "project.tar.gz", models.FormatTarGz},
		{"tgz", "project.tgz", models.FormatTarGz},
		{"tar.xz", "project.tar.xz", models.FormatTarXz},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, staging, workspace := setupTestService(t, nil)

			archive := testutil.WriteTar(t, filepath.Join(staging, tc.file),
				testutil.Dir("pkg/"),
				testutil.File("pkg/util.py", "print('hi')\n"),
				testutil.File("data/config.json", `{"a":1}`),
			)

			res, err := service.Extract(archive, workspace)
			require.NoError(t, err)

			assert.True(t, res.Success)
			assert.Equal(t, tc.format, res.Format)
			assert.Equal(t, []string{"pkg/util.py", "data/config.json"}, res.ExtractedPaths)
			assertInside(t, workspace, res.ExtractedPaths)
		})
	}
}

func TestExtractorService_Extract_TarTraversal(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteTar(t, filepath.Join(staging, "evil.tar"),
		testutil.File("ok.txt", "fine"),
		testutil.File("../../../etc/passwd", "root:x:0:0"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindUnsafePath, res.Error)
	assert.Equal(t, []string{}, res.ExtractedPaths)
	assert.Equal(t, 0, testutil.CountFiles(t, workspace))
}

func TestExtractorService_Extract_UnsafePaths(t *testing.T) {
	names := []string{
		"../evil.txt",
		"/etc/passwd",
		"a/../../b.txt",
		"..\\windows\\evil.txt",
		"C:/Windows/evil.txt",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			service, staging, workspace := setupTestService(t, nil)

			archive := testutil.WriteZip(t, filepath.Join(staging, "evil.zip"),
				testutil.File("first.txt", "written before the bad member in archive order"),
				testutil.File(name, "payload"),
			)

			res, err := service.Extract(archive, workspace)
			require.NoError(t, err)

			assert.False(t, res.Success)
			assert.Equal(t, models.ErrorKindUnsafePath, res.Error)
			assert.Empty(t, res.ExtractedPaths)
			assert.Equal(t, 0, testutil.CountFiles(t, workspace))
		})
	}
}

func TestExtractorService_Extract_ZipBombDeclaredSize(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	payload := []byte("tiny")
	archive := testutil.WriteRawZip(t, filepath.Join(staging, "bomb.zip"),
		testutil.RawZipEntry{Name: "a.bin", Data: payload, UncompressedSize: 1 << 30, Method: zip.Store},
		testutil.RawZipEntry{Name: "b.bin", Data: payload, UncompressedSize: 1 << 30, Method: zip.Store},
	)
	info, err := os.Stat(archive)
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(10*1024))

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindExpandedSizeExceeded, res.Error)
	assert.Equal(t, 0, testutil.CountFiles(t, workspace))
}

func TestExtractorService_Extract_TarGzBomb(t *testing.T) {
	cfg := testConfig()
	cfg.MaxExpandedSize = 1 << 20
	service, staging, workspace := setupTestService(t, cfg)

	archive := testutil.WriteTar(t, filepath.Join(staging, "bomb.tar.gz"),
		testutil.Entry{Name: "zeros1.bin", Size: 1 << 20},
		testutil.Entry{Name: "zeros2.bin", Size: 1 << 20},
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindExpandedSizeExceeded, res.Error)
	assert.Equal(t, 0, testutil.CountFiles(t, workspace))
}

func TestExtractorService_Extract_ExactlyAtCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxExpandedSize = 10
	service, staging, workspace := setupTestService(t, cfg)

	archive := testutil.WriteTar(t, filepath.Join(staging, "cap.tar"),
		testutil.File("a.txt", "12345"),
		testutil.File("b.txt", "67890"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Len(t, res.ExtractedPaths, 2)
}

func TestExtractorService_Extract_FilenameTooLong(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteZip(t, filepath.Join(staging, "long.zip"),
		testutil.File(strings.Repeat("a", 300)+".txt", "x"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindFilenameTooLong, res.Error)
	assert.Equal(t, 0, testutil.CountFiles(t, workspace))
}

func TestExtractorService_Extract_UnsafeMemberTypes(t *testing.T) {
	cases := []struct {
		name  string
		entry testutil.Entry
	}{
		{"symlink", testutil.Entry{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}},
		{"hardlink", testutil.Entry{Name: "hard", Typeflag: tar.TypeLink, Linkname: "ok.txt"}},
		{"char device", testutil.Entry{Name: "tty", Typeflag: tar.TypeChar}},
		{"block device", testutil.Entry{Name: "sda", Typeflag: tar.TypeBlock}},
		{"fifo", testutil.Entry{Name: "pipe", Typeflag: tar.TypeFifo}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, staging, workspace := setupTestService(t, nil)

			archive := testutil.WriteTar(t, filepath.Join(staging, "special.tar.gz"),
				testutil.File("ok.txt", "fine"),
				tc.entry,
			)

			res, err := service.Extract(archive, workspace)
			require.NoError(t, err)

			assert.False(t, res.Success)
			assert.Equal(t, models.ErrorKindUnsafeMemberType, res.Error)
			assert.Equal(t, 0, testutil.CountFiles(t, workspace))
		})
	}
}

func TestExtractorService_Extract_ZipSymlink(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteZip(t, filepath.Join(staging, "link.zip"),
		testutil.Entry{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"},
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindUnsafeMemberType, res.Error)
}

func TestExtractorService_Extract_ArchiveTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadSize = 16
	service, staging, workspace := setupTestService(t, cfg)

	archive := testutil.WriteZip(t, filepath.Join(staging, "big.zip"),
		testutil.File("a.txt", strings.Repeat("a", 100)),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindArchiveTooLarge, res.Error)
	assert.NoDirExists(t, workspace)
}

func TestExtractorService_Extract_UnsupportedFormat(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	require.NoError(t, os.MkdirAll(staging, 0755))
	archive := filepath.Join(staging, "notes.rar")
	require.NoError(t, os.WriteFile(archive, []byte("plain text, not an archive"), 0644))

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.ErrorKindUnsupportedFormat, res.Error)
}

func TestExtractorService_Extract_CorruptArchive(t *testing.T) {
	names := []string{"broken.zip", "broken.tar.gz", "broken.tar.bz2", "broken.tar.xz", "broken.7z"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			service, staging, workspace := setupTestService(t, nil)

			require.NoError(t, os.MkdirAll(staging, 0755))
			archive := filepath.Join(staging, name)
			require.NoError(t, os.WriteFile(archive, []byte(strings.Repeat("garbage ", 100)), 0644))

			res, err := service.Extract(archive, workspace)
			require.NoError(t, err)

			assert.False(t, res.Success)
			assert.Equal(t, models.ErrorKindCorruptArchive, res.Error)
			assert.NotEmpty(t, res.Detail)
			assert.Equal(t, 0, testutil.CountFiles(t, workspace))
		})
	}
}

func TestExtractorService_Extract_EmptyTar(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	require.NoError(t, os.MkdirAll(staging, 0755))
	zeroByte := filepath.Join(staging, "zero.tar")
	require.NoError(t, os.WriteFile(zeroByte, nil, 0644))
	noMembers := testutil.WriteTar(t, filepath.Join(staging, "nothing.tar.gz"))

	for _, archive := range []string{zeroByte, noMembers} {
		res, err := service.Extract(archive, workspace)
		require.NoError(t, err)

		assert.False(t, res.Success, archive)
		assert.Equal(t, models.ErrorKindCorruptArchive, res.Error, archive)
		assert.Empty(t, res.ExtractedPaths)
	}
}

func TestExtractorService_Extract_DuplicateMembers(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteZip(t, filepath.Join(staging, "dup.zip"),
		testutil.File("a.txt", "first"),
		testutil.File("b.txt", "b"),
		testutil.File("a.txt", "second"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"a.txt", "b.txt"}, res.ExtractedPaths)
	data, err := os.ReadFile(filepath.Join(workspace, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestExtractorService_Extract_BadMemberIsSkipped(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	good := []byte("good content")
	archive := testutil.WriteRawZip(t, filepath.Join(staging, "partial.zip"),
		testutil.RawZipEntry{Name: "good.txt", Data: good, UncompressedSize: uint64(len(good)), CRC32: crc32.ChecksumIEEE(good), Method: zip.Store},
		testutil.RawZipEntry{Name: "bad.txt", Data: []byte("hello"), UncompressedSize: 5, CRC32: 12345, Method: zip.Store},
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"good.txt"}, res.ExtractedPaths)
	assert.FileExists(t, filepath.Join(workspace, "good.txt"))
	assert.NoFileExists(t, filepath.Join(workspace, "bad.txt"))
}

func TestExtractorService_Extract_MissingArchive(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	res, err := service.Extract(filepath.Join(staging, "missing.zip"), workspace)

	require.ErrorIs(t, err, ErrArchiveNotFound)
	assert.False(t, res.Success)
	assert.Empty(t, res.ExtractedPaths)
}

func TestExtractorService_Extract_DetectsByMagic(t *testing.T) {
	service, staging, workspace := setupTestService(t, nil)

	archive := testutil.WriteZip(t, filepath.Join(staging, "upload.bin"),
		testutil.File("a.txt", "a"),
	)

	res, err := service.Extract(archive, workspace)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.FormatZip, res.Format)
	assert.Equal(t, []string{"a.txt"}, res.ExtractedPaths)
}

func TestExtractorService_IsArchive(t *testing.T) {
	service, _, _ := setupTestService(t, nil)

	cases := map[string]bool{
		"project.zip":    true,
		"project.ZIP":    true,
		"project.tar.gz": true,
		"project.tgz":    true,
		"project.7z":     true,
		"main.go":        false,
		"Makefile":       false,
		"archive.rar":    false,
	}
	for name, want := range cases {
		assert.Equal(t, want, service.IsArchive(name), name)
	}
}
