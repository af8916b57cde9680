package repository

import (
	"context"

	"smartpen/internal/bluetooth/model"
	"smartpen/internal/identity"
	"smartpen/pkg/logger"
	"smartpen/store"
)

// SessionRepository is append-only: there is no update or delete path.
type SessionRepository struct {
	Sessions store.Collection[model.Session]
}

func NewSessionRepository(sessions store.Collection[model.Session]) *SessionRepository {
	return &SessionRepository{Sessions: sessions}
}

func (r *SessionRepository) Append(ctx context.Context, s model.Session) error {
	if _, err := r.Sessions.Insert(ctx, s); err != nil {
		logger.Sugar.Errorf("Failed to store bluetooth session from device %s: %v", s.DeviceID, err)
		return identity.Translate(err)
	}
	return nil
}

func (r *SessionRepository) GetOwned(ctx context.Context, id identity.ID, owner identity.Owner) (model.Session, error) {
	return identity.Authorize(ctx, r.Sessions, id, owner)
}
