// Package identity owns the externally visible resource identifier and the
// owner-scoped lookup discipline. Every read, update and delete of a
// user-owned document goes through Scope, which filters on the external id
// and the owner together in one store query. A document owned by someone
// else is indistinguishable from one that does not exist.
package identity

import (
	"context"
	"errors"
	"fmt"

	"smartpen/pkg/apperr"
	"smartpen/store"

	"github.com/google/uuid"
)

// Field names shared by every owner-scoped document.
const (
	FieldID    = "id"
	FieldOwner = "user_id"
)

// ID is the public identifier of a note or session. It is allocated once at
// creation and is unrelated to store.Key.
type ID string

// Owner is the authenticated caller's internal user id.
type Owner string

// Allocate returns a fresh random (version 4) identifier.
func Allocate() ID {
	return ID(uuid.NewString())
}

// ParseID validates an identifier taken from a request path. Anything that
// could not have been produced by Allocate is reported as not found.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: no resource with id %q", apperr.ErrNotFound, s)
	}
	return ID(u.String()), nil
}

// RequireOwner fails closed when no caller identity is present.
func RequireOwner(owner Owner) error {
	if owner == "" {
		return fmt.Errorf("%w: missing caller identity", apperr.ErrUnauthorized)
	}
	return nil
}

// Scope is the only filter used to address a single owned document.
func Scope(id ID, owner Owner) store.Filter {
	return store.Filter{FieldID: string(id), FieldOwner: string(owner)}
}

// OwnedBy selects every document of owner.
func OwnedBy(owner Owner) store.Filter {
	return store.Filter{FieldOwner: string(owner)}
}

// Authorize fetches the document matching both id and owner.
func Authorize[T any](ctx context.Context, c store.Collection[T], id ID, owner Owner) (T, error) {
	var zero T
	if err := RequireOwner(owner); err != nil {
		return zero, err
	}
	doc, err := c.FindOne(ctx, Scope(id, owner))
	if err != nil {
		return zero, Translate(err)
	}
	return doc, nil
}

// Translate maps store sentinels onto the application error taxonomy.
func Translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	default:
		return err
	}
}
