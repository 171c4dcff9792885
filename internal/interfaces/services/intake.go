package services

import (
	"context"
	"io"

	"github.com/sunr3d/project-intake/models"
)

type UploadFile struct {
	Name   string
	Reader io.Reader
}

type UploadReport struct {
	SessionID      string
	UploadedFiles  []models.UploadedFile
	ExtractedFiles []string
	Structure      *models.ProjectStructure
	Warnings       []string
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=IntakeService --output=../../../mocks
type IntakeService interface {
	CreateSession(ctx context.Context) (*models.Session, error)
	Upload(ctx context.Context, sessionID string, files []UploadFile) (*UploadReport, error)
	GetStructure(ctx context.Context, sessionID string) (*models.ProjectStructure, error)
	ReadFile(ctx context.Context, sessionID, relPath string) (*models.FileContent, error)
	// BuildArchive returns the path of a fresh zip of the workspace; the caller removes it.
	BuildArchive(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	CleanupExpired(ctx context.Context) (int, error)
	CountSessions(ctx context.Context) (int, error)
}
