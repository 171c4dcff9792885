package inmem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sunr3d/project-intake/internal/interfaces/infra"
	"github.com/sunr3d/project-intake/models"
)

var _ infra.SessionStore = (*inmemDB)(nil)

type inmemDB struct {
	logger *zap.Logger
	db     map[string]*models.Session
	mu     sync.RWMutex
	now    func() time.Time
}

func New(log *zap.Logger) infra.SessionStore {
	return &inmemDB{
		logger: log,
		db:     make(map[string]*models.Session),
		now:    time.Now,
	}
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextDone, ctx.Err())
	default:
		return nil
	}
}

func (db *inmemDB) SaveSession(ctx context.Context, session *models.Session) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	if session == nil {
		return ErrSessionNil
	}

	if session.ID == "" {
		return ErrSessionIDEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *session
	stored.LastActivity = db.now()
	if existing, ok := db.db[session.ID]; ok {
		stored.Busy = existing.Busy
	}
	db.db[session.ID] = &stored
	db.logger.Debug("сессия сохранена", zap.String("session_id", session.ID))

	return nil
}

func (db *inmemDB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrSessionIDEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	session, exists := db.db[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	session.LastActivity = db.now()

	cp := *session
	return &cp, nil
}

func (db *inmemDB) Acquire(ctx context.Context, id string) (*models.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, ErrSessionIDEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	session, exists := db.db[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if session.Busy {
		return nil, ErrSessionBusy
	}
	session.Busy = true
	session.LastActivity = db.now()

	cp := *session
	return &cp, nil
}

func (db *inmemDB) Release(ctx context.Context, id string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	session, exists := db.db[id]
	if !exists {
		return ErrSessionNotFound
	}
	session.Busy = false
	session.LastActivity = db.now()

	return nil
}

func (db *inmemDB) ListExpired(ctx context.Context, ttl time.Duration) ([]*models.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	now := db.now()
	expired := make([]*models.Session, 0)
	for _, session := range db.db {
		if session.Busy {
			continue
		}
		if now.Sub(session.LastActivity) > ttl {
			cp := *session
			expired = append(expired, &cp)
		}
	}

	return expired, nil
}

func (db *inmemDB) CountSessions(ctx context.Context) (int, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return len(db.db), nil
}

func (db *inmemDB) DeleteSession(ctx context.Context, id string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	if id == "" {
		return ErrSessionIDEmpty
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.db[id]; !exists {
		return ErrSessionNotFound
	}

	delete(db.db, id)
	db.logger.Info("сессия удалена", zap.String("session_id", id))

	return nil
}
