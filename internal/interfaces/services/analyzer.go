package services

import "github.com/sunr3d/project-intake/models"

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=Analyzer --output=../../../mocks
type Analyzer interface {
	Classify(filename string) models.Category
	Analyze(workspaceRoot string) *models.ProjectStructure
	// ReadContent returns the text of one file, or a marker for files that
	// are larger than limit or not text.
	ReadContent(path string, limit int64) (string, error)
}
