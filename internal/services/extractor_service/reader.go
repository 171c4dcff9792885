package extractor_service

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/sunr3d/project-intake/models"
)

type memberType int

const (
	memberFile memberType = iota
	memberDir
	memberSymlink
	memberHardlink
	memberDevice
	memberFIFO
	memberOther
)

func (t memberType) String() string {
	switch t {
	case memberFile:
		return "file"
	case memberDir:
		return "dir"
	case memberSymlink:
		return "symlink"
	case memberHardlink:
		return "hardlink"
	case memberDevice:
		return "device"
	case memberFIFO:
		return "fifo"
	default:
		return "other"
	}
}

type member struct {
	name string
	size int64
	typ  memberType
}

type openFunc func() (io.ReadCloser, error)

// archiveReader visits the members of an archive in stored order. The open
// function handed to fn is only valid until fn returns.
type archiveReader interface {
	walk(fn func(m member, open openFunc) error) error
	Close() error
}

func openArchive(path string, format models.ArchiveFormat) (archiveReader, error) {
	switch format {
	case models.FormatZip:
		return openZip(path)
	case models.Format7z:
		return open7z(path)
	case models.FormatTar, models.FormatTarGz, models.FormatTarBz2, models.FormatTarXz:
		return &tarReader{path: path, format: format}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func typeFromMode(mode fs.FileMode) memberType {
	switch {
	case mode.IsDir():
		return memberDir
	case mode&fs.ModeSymlink != 0:
		return memberSymlink
	case mode&(fs.ModeDevice|fs.ModeCharDevice) != 0:
		return memberDevice
	case mode&fs.ModeNamedPipe != 0:
		return memberFIFO
	case mode.IsRegular():
		return memberFile
	default:
		return memberOther
	}
}

func clampSize(size uint64) int64 {
	if size > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(size)
}

type zipReader struct {
	rc *zip.ReadCloser
}

func openZip(path string) (*zipReader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return &zipReader{rc: rc}, nil
}

func (z *zipReader) walk(fn func(m member, open openFunc) error) error {
	for _, f := range z.rc.File {
		m := member{
			name: f.Name,
			size: clampSize(f.UncompressedSize64),
			typ:  typeFromMode(f.Mode()),
		}
		if err := fn(m, f.Open); err != nil {
			return err
		}
	}
	return nil
}

func (z *zipReader) Close() error {
	return z.rc.Close()
}

type sevenZipReader struct {
	rc *sevenzip.ReadCloser
}

func open7z(path string) (*sevenZipReader, error) {
	rc, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return &sevenZipReader{rc: rc}, nil
}

func (s *sevenZipReader) walk(fn func(m member, open openFunc) error) error {
	for _, f := range s.rc.File {
		info := f.FileInfo()
		m := member{
			name: f.Name,
			size: info.Size(),
			typ:  typeFromMode(info.Mode()),
		}
		if err := fn(m, f.Open); err != nil {
			return err
		}
	}
	return nil
}

func (s *sevenZipReader) Close() error {
	return s.rc.Close()
}

// tarReader reopens the file on every walk because tar streams can only be
// read front to back.
type tarReader struct {
	path   string
	format models.ArchiveFormat
}

func (t *tarReader) walk(fn func(m member, open openFunc) error) error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer f.Close()

	stream, closeStream, err := t.decompress(f)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer closeStream()

	tr := tar.NewReader(stream)
	for headers := 0; ; headers++ {
		hdr, err := tr.Next()
		if err == io.EOF {
			if headers == 0 {
				return fmt.Errorf("%w: пустой архив", ErrCorruptArchive)
			}
			return nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		m := member{
			name: hdr.Name,
			size: hdr.Size,
			typ:  tarMemberType(hdr.Typeflag),
		}
		if m.size < 0 {
			return fmt.Errorf("%w: отрицательный размер %s", ErrCorruptArchive, hdr.Name)
		}
		open := func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		}
		if err := fn(m, open); err != nil {
			return err
		}
	}
}

func (t *tarReader) decompress(r io.Reader) (io.Reader, func(), error) {
	noop := func() {}
	switch t.format {
	case models.FormatTarGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case models.FormatTarBz2:
		return bzip2.NewReader(r), noop, nil
	case models.FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return xr, noop, nil
	default:
		return r, noop, nil
	}
}

func (t *tarReader) Close() error {
	return nil
}

func tarMemberType(flag byte) memberType {
	switch flag {
	case tar.TypeReg:
		return memberFile
	case tar.TypeDir:
		return memberDir
	case tar.TypeSymlink:
		return memberSymlink
	case tar.TypeLink:
		return memberHardlink
	case tar.TypeChar, tar.TypeBlock:
		return memberDevice
	case tar.TypeFifo:
		return memberFIFO
	default:
		return memberOther
	}
}
