package intake_service

import "errors"

var (
	ErrContextDone = errors.New("отмена контекста")

	ErrNoFiles         = errors.New("файлы не переданы")
	ErrSessionNotFound = errors.New("сессия не найдена")
	ErrSessionBusy     = errors.New("сессия занята другой загрузкой")
	ErrSessionSave     = errors.New("не удалось сохранить сессию")
	ErrSessionGet      = errors.New("не удалось получить сессию")
	ErrNoStructure     = errors.New("проект ещё не загружен")

	ErrInvalidPath  = errors.New("некорректный путь к файлу")
	ErrFileNotFound = errors.New("файл не найден")
	ErrArchiveBuild = errors.New("не удалось собрать архив рабочей директории")

	ErrUnsupportedFile  = errors.New("неподдерживаемый тип файла")
	ErrFileTooLarge     = errors.New("файл превышает допустимый размер")
	ErrExtractFailed    = errors.New("не удалось распаковать архив")
	ErrMkdirFailed      = errors.New("не удалось создать директорию")
	ErrFileCreateFailed = errors.New("не удалось создать файл")
	ErrFileOpenFailed   = errors.New("не удалось открыть файл")
	ErrFileCopyFailed   = errors.New("не удалось скопировать файл")
	ErrRemoveFailed     = errors.New("не удалось удалить файл/директорию")
)
