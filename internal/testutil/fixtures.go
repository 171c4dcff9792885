// Package testutil builds archive fixtures for tests.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type Entry struct {
	Name     string
	Body     []byte
	Typeflag byte
	Linkname string
	// Size overrides len(Body) in tar headers; the body is padded with zeroes.
	Size int64
}

func File(name, body string) Entry {
	return Entry{Name: name, Body: []byte(body), Typeflag: tar.TypeReg}
}

func Dir(name string) Entry {
	return Entry{Name: name, Typeflag: tar.TypeDir}
}

func WriteZip(t testing.TB, path string, entries ...Entry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		switch e.Typeflag {
		case tar.TypeDir:
			hdr.SetMode(os.ModeDir | 0755)
		case tar.TypeSymlink:
			hdr.SetMode(os.ModeSymlink | 0777)
		default:
			hdr.SetMode(0644)
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		if e.Typeflag == tar.TypeSymlink {
			_, err = w.Write([]byte(e.Linkname))
		} else {
			_, err = w.Write(e.Body)
		}
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

// RawZipEntry is stored verbatim, which lets tests declare sizes and checksums
// that do not match the payload.
type RawZipEntry struct {
	Name             string
	Data             []byte
	UncompressedSize uint64
	CRC32            uint32
	Method           uint16
}

func WriteRawZip(t testing.TB, path string, entries ...RawZipEntry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               e.Name,
			Method:             e.Method,
			CRC32:              e.CRC32,
			CompressedSize64:   uint64(len(e.Data)),
			UncompressedSize64: e.UncompressedSize,
		})
		require.NoError(t, err)
		_, err = w.Write(e.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

// WriteTar writes a tar archive, compressed according to the path suffix
// (.tar, .tar.gz/.tgz, .tar.xz/.txz).
func WriteTar(t testing.TB, path string, entries ...Entry) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var (
		out    io.Writer = f
		closer io.Closer
	)
	switch {
	case hasSuffix(path, ".tar.gz", ".tgz"):
		gw := gzip.NewWriter(f)
		out, closer = gw, gw
	case hasSuffix(path, ".tar.xz", ".txz"):
		xw, err := xz.NewWriter(f)
		require.NoError(t, err)
		out, closer = xw, xw
	}

	tw := tar.NewWriter(out)
	for _, e := range entries {
		size := int64(len(e.Body))
		if e.Size > size {
			size = e.Size
		}
		typeflag := e.Typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     e.Name,
			Typeflag: typeflag,
			Linkname: e.Linkname,
			Mode:     0644,
		}
		if typeflag == tar.TypeReg {
			hdr.Size = size
		}
		if typeflag == tar.TypeDir {
			hdr.Mode = 0755
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if typeflag == tar.TypeReg {
			_, err := tw.Write(e.Body)
			require.NoError(t, err)
			if pad := size - int64(len(e.Body)); pad > 0 {
				_, err = io.CopyN(tw, zeroReader{}, pad)
				require.NoError(t, err)
			}
		}
	}
	require.NoError(t, tw.Close())
	if closer != nil {
		require.NoError(t, closer.Close())
	}
	return path
}

func hasSuffix(path string, suffixes ...string) bool {
	for _, s := range suffixes {
		if len(path) >= len(s) && path[len(path)-len(s):] == s {
			return true
		}
	}
	return false
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// CountFiles returns the number of regular files below root, or 0 if root is
// missing.
func CountFiles(t testing.TB, root string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return count
}
