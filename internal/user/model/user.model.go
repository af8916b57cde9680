package model

import (
	"fmt"
	"strings"
	"time"

	"smartpen/pkg/apperr"
	"smartpen/pkg/validate"
)

// User is the stored account document. PasswordHash never leaves the
// service; responses use Profile.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"password" bson:"password"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r RegisterRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	// bcrypt ignores everything past 72 bytes; a max tag would count runes.
	if len(r.Password) > 72 {
		return fmt.Errorf("%w: password is too long", apperr.ErrValidation)
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Normalize mirrors RegisterRequest.Normalize so a username logs in exactly
// as it was registered.
func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
