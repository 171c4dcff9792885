package extractor_service

import (
	"errors"

	"github.com/sunr3d/project-intake/models"
)

var (
	ErrArchiveTooLarge      = errors.New("архив слишком большой")
	ErrExpandedSizeExceeded = errors.New("превышен допустимый размер распакованного архива")
	ErrUnsafePath           = errors.New("небезопасный путь в архиве")
	ErrFilenameTooLong      = errors.New("слишком длинное имя файла в архиве")
	ErrUnsafeMemberType     = errors.New("недопустимый тип элемента архива")
	ErrUnsupportedFormat    = errors.New("неподдерживаемый формат архива")
	ErrCorruptArchive       = errors.New("архив повреждён")

	ErrArchiveNotFound = errors.New("архив не найден")
	ErrMkdirFailed     = errors.New("не удалось создать директорию")
	ErrMemberOversized = errors.New("элемент архива больше заявленного размера")
)

var errorKinds = []struct {
	err  error
	kind models.ErrorKind
}{
	{ErrArchiveTooLarge, models.ErrorKindArchiveTooLarge},
	{ErrExpandedSizeExceeded, models.ErrorKindExpandedSizeExceeded},
	{ErrUnsafePath, models.ErrorKindUnsafePath},
	{ErrFilenameTooLong, models.ErrorKindFilenameTooLong},
	{ErrUnsafeMemberType, models.ErrorKindUnsafeMemberType},
	{ErrUnsupportedFormat, models.ErrorKindUnsupportedFormat},
	{ErrCorruptArchive, models.ErrorKindCorruptArchive},
}

// kindOf maps a validation error onto the public taxonomy. Anything unknown is
// reported as a corrupt archive.
func kindOf(err error) models.ErrorKind {
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return models.ErrorKindCorruptArchive
}
