package extractor_service

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sunr3d/project-intake/models"
)

const sniffLen = 512

var suffixFormats = []struct {
	suffix string
	format models.ArchiveFormat
}{
	{".tar.gz", models.FormatTarGz},
	{".tgz", models.FormatTarGz},
	{".tar.bz2", models.FormatTarBz2},
	{".tbz2", models.FormatTarBz2},
	{".tbz", models.FormatTarBz2},
	{".tar.xz", models.FormatTarXz},
	{".txz", models.FormatTarXz},
	{".tar", models.FormatTar},
	{".zip", models.FormatZip},
	{".7z", models.Format7z},
	{".gz", models.FormatTarGz},
	{".bz2", models.FormatTarBz2},
	{".xz", models.FormatTarXz},
}

var (
	magicZip      = []byte("PK\x03\x04")
	magicZipEmpty = []byte("PK\x05\x06")
	magicGzip     = []byte{0x1f, 0x8b}
	magicBzip2    = []byte("BZh")
	magicXz       = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	magic7z       = []byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}
	magicUstar    = []byte("ustar")
)

const ustarOffset = 257

func formatFromName(name string) models.ArchiveFormat {
	lower := strings.ToLower(name)
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return sf.format
		}
	}
	return models.FormatUnknown
}

func formatFromMagic(head []byte) models.ArchiveFormat {
	switch {
	case bytes.HasPrefix(head, magicZip), bytes.HasPrefix(head, magicZipEmpty):
		return models.FormatZip
	case bytes.HasPrefix(head, magicGzip):
		return models.FormatTarGz
	case bytes.HasPrefix(head, magicBzip2):
		return models.FormatTarBz2
	case bytes.HasPrefix(head, magicXz):
		return models.FormatTarXz
	case bytes.HasPrefix(head, magic7z):
		return models.Format7z
	case len(head) >= ustarOffset+len(magicUstar) &&
		bytes.Equal(head[ustarOffset:ustarOffset+len(magicUstar)], magicUstar):
		return models.FormatTar
	}
	return models.FormatUnknown
}

// detectFormat trusts the content signature first and falls back to the file
// name, which is the only hint for pre-POSIX tar files.
func detectFormat(path string) (models.ArchiveFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FormatUnknown, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return models.FormatUnknown, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	if format := formatFromMagic(head[:n]); format != models.FormatUnknown {
		return format, nil
	}
	if format := formatFromName(path); format != models.FormatUnknown {
		return format, nil
	}
	return models.FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}
