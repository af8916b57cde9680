package model

import (
	"fmt"
	"time"

	"smartpen/internal/identity"
	"smartpen/pkg/apperr"
	"smartpen/pkg/validate"
	"smartpen/store"
)

// Note is the canonical stored shape and the response body for every note
// endpoint.
type Note struct {
	ID            identity.ID    `json:"id" bson:"id"`
	Title         string         `json:"title" bson:"title"`
	Content       string         `json:"content" bson:"content"` // encoded canvas data
	TextContent   *string        `json:"text_content" bson:"text_content"`
	UserID        identity.Owner `json:"user_id" bson:"user_id"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
	GoogleDriveID *string        `json:"google_drive_id" bson:"google_drive_id"`
}

// CreateNoteRequest has no identity, ownership or timestamp fields; whatever
// a client sends for them is dropped while decoding.
type CreateNoteRequest struct {
	Title         string  `json:"title" validate:"required"`
	Content       string  `json:"content" validate:"required"`
	TextContent   *string `json:"text_content"`
	GoogleDriveID *string `json:"google_drive_id"`
}

func (r CreateNoteRequest) Validate() error {
	return validate.Struct(r)
}

// Patch is a partial update. A nil field is left untouched.
type Patch struct {
	Title         *string `json:"title" validate:"omitempty,min=1"`
	Content       *string `json:"content" validate:"omitempty,min=1"`
	TextContent   *string `json:"text_content"`
	GoogleDriveID *string `json:"google_drive_id"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.TextContent == nil && p.GoogleDriveID == nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	}
	return validate.Struct(p)
}

// Merge applies p to existing. id, user_id and created_at are never touched;
// updated_at always moves forward, by one millisecond if now has not.
func Merge(existing Note, p Patch, now time.Time) Note {
	out := existing
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.TextContent != nil {
		out.TextContent = copyString(p.TextContent)
	}
	if p.GoogleDriveID != nil {
		out.GoogleDriveID = copyString(p.GoogleDriveID)
	}
	out.UpdatedAt = NextUpdatedAt(existing, now)
	return out
}

// NextUpdatedAt returns the timestamp a mutation of n at now must carry.
func NextUpdatedAt(n Note, now time.Time) time.Time {
	floor := n.UpdatedAt
	if n.CreatedAt.After(floor) {
		floor = n.CreatedAt
	}
	if !now.After(floor) {
		return floor.Add(time.Millisecond)
	}
	return now
}

// Fields lists the store assignments that turn the stored note into merged,
// the result of Merge with p. Only the fields p names are written, with
// their merged values, plus the new updated_at.
func (p Patch) Fields(merged Note) store.Fields {
	set := store.Fields{"updated_at": merged.UpdatedAt}
	if p.Title != nil {
		set["title"] = merged.Title
	}
	if p.Content != nil {
		set["content"] = merged.Content
	}
	if p.TextContent != nil {
		set["text_content"] = merged.TextContent
	}
	if p.GoogleDriveID != nil {
		set["google_drive_id"] = merged.GoogleDriveID
	}
	return set
}

type DeleteNoteResponse struct {
	Message string `json:"message"`
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
