package service

import (
	"context"
	"time"

	"smartpen/internal/bluetooth/model"
	"smartpen/internal/bluetooth/repository"
	"smartpen/internal/identity"
)

type SessionService struct {
	Repo *repository.SessionRepository
	Now  func() time.Time
}

func NewSessionService(repo *repository.SessionRepository) *SessionService {
	return &SessionService{Repo: repo, Now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

// Ingest stores a batch as a new session and returns its id.
func (s *SessionService) Ingest(ctx context.Context, owner identity.Owner, req model.BatchRequest) (identity.ID, error) {
	if err := identity.RequireOwner(owner); err != nil {
		return "", err
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	sess := model.Session{
		ID:         identity.Allocate(),
		UserID:     owner,
		DeviceID:   req.DeviceID,
		StrokeData: req.StrokeData,
		Timestamp:  req.Timestamp.UTC(),
		CreatedAt:  s.Now(),
	}
	if err := s.Repo.Append(ctx, sess); err != nil {
		return "", err
	}
	return sess.ID, nil
}

func (s *SessionService) Get(ctx context.Context, id identity.ID, owner identity.Owner) (model.Session, error) {
	return s.Repo.GetOwned(ctx, id, owner)
}
