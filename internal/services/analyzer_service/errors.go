package analyzer_service

import "errors"

var (
	ErrUnsafeLink = errors.New("небезопасная символическая ссылка")
	ErrNotRegular = errors.New("не обычный файл")
)
