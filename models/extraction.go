package models

import "encoding/json"

type ArchiveFormat string

const (
	FormatZip     ArchiveFormat = "zip"
	FormatTar     ArchiveFormat = "tar"
	FormatTarGz   ArchiveFormat = "tar.gz"
	FormatTarBz2  ArchiveFormat = "tar.bz2"
	FormatTarXz   ArchiveFormat = "tar.xz"
	Format7z      ArchiveFormat = "7z"
	FormatUnknown ArchiveFormat = ""
)

// ErrorKind is the closed set of reasons an extraction can be refused.
type ErrorKind string

const (
	ErrorKindNone                 ErrorKind = ""
	ErrorKindArchiveTooLarge      ErrorKind = "ArchiveTooLarge"
	ErrorKindExpandedSizeExceeded ErrorKind = "ExpandedSizeExceeded"
	ErrorKindUnsafePath           ErrorKind = "UnsafePath"
	ErrorKindFilenameTooLong      ErrorKind = "FilenameTooLong"
	ErrorKindUnsafeMemberType     ErrorKind = "UnsafeMemberType"
	ErrorKindUnsupportedFormat    ErrorKind = "UnsupportedFormat"
	ErrorKindCorruptArchive       ErrorKind = "CorruptArchive"
)

func (k ErrorKind) MarshalJSON() ([]byte, error) {
	if k == ErrorKindNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = ErrorKindNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ErrorKind(s)
	return nil
}

type ExtractionResult struct {
	Success        bool          `json:"success"`
	Error          ErrorKind     `json:"error"`
	Detail         string        `json:"detail,omitempty"`
	Format         ArchiveFormat `json:"format,omitempty"`
	ExtractedPaths []string      `json:"extracted_paths"`
}
