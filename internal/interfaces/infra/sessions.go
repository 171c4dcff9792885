package infra

import (
	"context"
	"time"

	"github.com/sunr3d/project-intake/models"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.2 --name=SessionStore --output=../../../mocks
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// Acquire marks the session busy; it fails if another upload holds it.
	Acquire(ctx context.Context, id string) (*models.Session, error)
	Release(ctx context.Context, id string) error
	ListExpired(ctx context.Context, ttl time.Duration) ([]*models.Session, error)
	CountSessions(ctx context.Context) (int, error)
}
