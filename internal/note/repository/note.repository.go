package repository

import (
	"context"

	"smartpen/internal/identity"
	"smartpen/internal/note/model"
	"smartpen/pkg/logger"
	"smartpen/store"
)

// NoteRepository addresses notes only through their public id and owner.
type NoteRepository struct {
	Notes store.Collection[model.Note]
}

func NewNoteRepository(notes store.Collection[model.Note]) *NoteRepository {
	return &NoteRepository{Notes: notes}
}

func (r *NoteRepository) Create(ctx context.Context, n model.Note) error {
	key, err := r.Notes.Insert(ctx, n)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note %s: %v", n.ID, err)
		return identity.Translate(err)
	}
	logger.Sugar.Debugf("Stored note %s under key %s", n.ID, key)
	return nil
}

func (r *NoteRepository) GetOwned(ctx context.Context, id identity.ID, owner identity.Owner) (model.Note, error) {
	return identity.Authorize(ctx, r.Notes, id, owner)
}

func (r *NoteRepository) ListByOwner(ctx context.Context, owner identity.Owner) ([]model.Note, error) {
	notes, err := r.Notes.Find(ctx, identity.OwnedBy(owner))
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %s: %v", owner, err)
	}
	return notes, err
}

func (r *NoteRepository) UpdateOwned(ctx context.Context, id identity.ID, owner identity.Owner, set store.Fields) (model.Note, error) {
	n, err := r.Notes.UpdateOne(ctx, identity.Scope(id, owner), set)
	if err != nil {
		return n, identity.Translate(err)
	}
	return n, nil
}

func (r *NoteRepository) DeleteOwned(ctx context.Context, id identity.ID, owner identity.Owner) error {
	return identity.Translate(r.Notes.DeleteOne(ctx, identity.Scope(id, owner)))
}
