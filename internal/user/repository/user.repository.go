package repository

import (
	"context"

	"smartpen/internal/identity"
	"smartpen/internal/user/model"
	"smartpen/pkg/logger"
	"smartpen/store"
)

type UserRepository struct {
	Users store.Collection[model.User]
}

func NewUserRepository(users store.Collection[model.User]) *UserRepository {
	return &UserRepository{Users: users}
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	if _, err := r.Users.Insert(ctx, u); err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", u.Username, err)
		return identity.Translate(err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, store.Filter{"username": username})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, store.Filter{"email": email})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, store.Filter{"id": id})
}

func (r *UserRepository) findOne(ctx context.Context, f store.Filter) (model.User, error) {
	u, err := r.Users.FindOne(ctx, f)
	if err != nil {
		return u, identity.Translate(err)
	}
	return u, nil
}
