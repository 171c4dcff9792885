package services

import "github.com/sunr3d/project-intake/models"

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=Extractor --output=../../../mocks
type Extractor interface {
	IsArchive(filename string) bool
	Extract(archivePath, targetDir string) (models.ExtractionResult, error)
}
