package service

import (
	"context"
	"strings"
	"time"

	"smartpen/internal/identity"
	"smartpen/internal/note/model"
	"smartpen/internal/note/repository"
)

// Event types published after a successful mutation.
const (
	EventNoteCreated = "NOTE_CREATED"
	EventNoteUpdated = "NOTE_UPDATED"
	EventNoteDeleted = "NOTE_DELETED"
)

// Notifier fans note changes out to the owner's other devices.
type Notifier interface {
	NotifyUser(userID, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) NotifyUser(string, string, any) {}

type NoteService struct {
	Repo *repository.NoteRepository
	Hub  Notifier
	Now  func() time.Time
}

// NewNoteService wires the lifecycle manager. hub may be nil.
func NewNoteService(repo *repository.NoteRepository, hub Notifier) *NoteService {
	if hub == nil {
		hub = noopNotifier{}
	}
	return &NoteService{Repo: repo, Hub: hub, Now: now}
}

// Stored timestamps are kept at millisecond precision, the coarsest of the
// supported backends.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *NoteService) Create(ctx context.Context, owner identity.Owner, req model.CreateNoteRequest) (model.Note, error) {
	if err := identity.RequireOwner(owner); err != nil {
		return model.Note{}, err
	}
	if err := req.Validate(); err != nil {
		return model.Note{}, err
	}

	ts := s.Now()
	n := model.Note{
		ID:            identity.Allocate(),
		Title:         req.Title,
		Content:       req.Content,
		TextContent:   req.TextContent,
		UserID:        owner,
		CreatedAt:     ts,
		UpdatedAt:     ts,
		GoogleDriveID: req.GoogleDriveID,
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return model.Note{}, err
	}

	stored, err := s.Repo.GetOwned(ctx, n.ID, owner)
	if err != nil {
		return model.Note{}, err
	}
	s.Hub.NotifyUser(string(owner), EventNoteCreated, stored)
	return stored, nil
}

// List returns the owner's notes oldest first. A non-empty query keeps only
// notes whose title or OCR text contains it, ignoring case.
func (s *NoteService) List(ctx context.Context, owner identity.Owner, query string) ([]model.Note, error) {
	if err := identity.RequireOwner(owner); err != nil {
		return nil, err
	}
	notes, err := s.Repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return notes, nil
	}

	matched := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), query) ||
			(n.TextContent != nil && strings.Contains(strings.ToLower(*n.TextContent), query)) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (s *NoteService) Get(ctx context.Context, id identity.ID, owner identity.Owner) (model.Note, error) {
	return s.Repo.GetOwned(ctx, id, owner)
}

// Update applies p to the owner's note. Only the fields named in p are
// written, through a single owner-scoped atomic update.
func (s *NoteService) Update(ctx context.Context, id identity.ID, owner identity.Owner, p model.Patch) (model.Note, error) {
	if err := identity.RequireOwner(owner); err != nil {
		return model.Note{}, err
	}
	if err := p.Validate(); err != nil {
		return model.Note{}, err
	}

	existing, err := s.Repo.GetOwned(ctx, id, owner)
	if err != nil {
		return model.Note{}, err
	}
	merged := model.Merge(existing, p, s.Now())

	updated, err := s.Repo.UpdateOwned(ctx, id, owner, p.Fields(merged))
	if err != nil {
		return model.Note{}, err
	}
	s.Hub.NotifyUser(string(owner), EventNoteUpdated, updated)
	return updated, nil
}

// Delete removes the note. A second call for the same id reports not found.
func (s *NoteService) Delete(ctx context.Context, id identity.ID, owner identity.Owner) error {
	if err := identity.RequireOwner(owner); err != nil {
		return err
	}
	if err := s.Repo.DeleteOwned(ctx, id, owner); err != nil {
		return err
	}
	s.Hub.NotifyUser(string(owner), EventNoteDeleted, map[string]identity.ID{"id": id})
	return nil
}
