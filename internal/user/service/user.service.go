package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartpen/internal/auth"
	"smartpen/internal/user/model"
	"smartpen/internal/user/repository"
	"smartpen/pkg/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenType = "bearer"

type UserService struct {
	Repo   *repository.UserRepository
	Tokens *auth.Tokens
	// Cost is the bcrypt work factor.
	Cost int
}

func NewUserService(repo *repository.UserRepository, tokens *auth.Tokens) *UserService {
	return &UserService{Repo: repo, Tokens: tokens, Cost: bcrypt.DefaultCost}
}

// Register creates an account and returns an access token for it. Username
// and email are checked before the insert; unique indexes back the check up.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.Token, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return model.Token{}, err
	}

	if err := s.ensureFree(ctx, s.Repo.GetByUsername, req.Username, "username"); err != nil {
		return model.Token{}, err
	}
	if err := s.ensureFree(ctx, s.Repo.GetByEmail, req.Email, "email"); err != nil {
		return model.Token{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Cost)
	if err != nil {
		return model.Token{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return model.Token{}, err
	}
	return s.issue(u.ID)
}

// Login verifies credentials. Unknown users and wrong passwords fail the
// same way.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.Token, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return model.Token{}, err
	}
	u, err := s.Repo.GetByUsername(ctx, req.Username)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.Token{}, fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthorized)
	}
	if err != nil {
		return model.Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return model.Token{}, fmt.Errorf("%w: incorrect username or password", apperr.ErrUnauthorized)
	}
	return s.issue(u.ID)
}

func (s *UserService) Profile(ctx context.Context, userID string) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, apperr.ErrUnauthorized
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.Profile{}, fmt.Errorf("%w: unknown user", apperr.ErrUnauthorized)
	}
	if err != nil {
		return model.Profile{}, err
	}
	return u.Profile(), nil
}

func (s *UserService) ensureFree(ctx context.Context, lookup func(context.Context, string) (model.User, error), value, field string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s already registered", apperr.ErrConflict, field)
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *UserService) issue(userID string) (model.Token, error) {
	token, err := s.Tokens.Issue(userID)
	if err != nil {
		return model.Token{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Token{AccessToken: token, TokenType: tokenType}, nil
}
