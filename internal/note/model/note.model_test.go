package model

import (
	"encoding/json"
	"testing"
	"time"

	"smartpen/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func sampleNote() Note {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return Note{
		ID:          "3f1c2a9e-6b7d-4e8f-9a0b-1c2d3e4f5a6b",
		Title:       "A",
		Content:     "YmFzZTY0",
		TextContent: strPtr("hello"),
		UserID:      "alice",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestMergeTitleOnly(t *testing.T) {
	existing := sampleNote()
	now := existing.UpdatedAt.Add(time.Minute)

	got := Merge(existing, Patch{Title: strPtr("B")}, now)

	assert.Equal(t, "B", got.Title)
	assert.Equal(t, existing.Content, got.Content)
	assert.Equal(t, existing.TextContent, got.TextContent)
	assert.Equal(t, existing.ID, got.ID)
	assert.Equal(t, existing.UserID, got.UserID)
	assert.Equal(t, existing.CreatedAt, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)

	// existing is a value; the merge must not alias into it
	assert.Equal(t, "A", existing.Title)
}

func TestMergeDoesNotAliasPatchPointers(t *testing.T) {
	text := "ocr"
	got := Merge(sampleNote(), Patch{TextContent: &text}, time.Now())
	text = "changed"
	assert.Equal(t, "ocr", *got.TextContent)
}

func TestMergeUpdatedAtStrictlyIncreases(t *testing.T) {
	existing := sampleNote()

	same := Merge(existing, Patch{Title: strPtr("B")}, existing.UpdatedAt)
	assert.True(t, same.UpdatedAt.After(existing.UpdatedAt))

	earlier := Merge(existing, Patch{Title: strPtr("B")}, existing.UpdatedAt.Add(-time.Hour))
	assert.True(t, earlier.UpdatedAt.After(existing.UpdatedAt))
	assert.False(t, earlier.UpdatedAt.Before(earlier.CreatedAt))
}

func TestPatchValidate(t *testing.T) {
	assert.ErrorIs(t, Patch{}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, Patch{Title: strPtr("")}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, Patch{Content: strPtr("")}.Validate(), apperr.ErrValidation)
	assert.NoError(t, Patch{TextContent: strPtr("")}.Validate())
	assert.NoError(t, Patch{Title: strPtr("B")}.Validate())
}

func TestPatchDecodingStripsIdentityFields(t *testing.T) {
	var p Patch
	body := `{"id":"other","user_id":"mallory","created_at":"2000-01-01T00:00:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.True(t, p.IsEmpty())

	body = `{"title":"B","user_id":"will_be_set_by_backend"}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, "B", *p.Title)
}

func TestPatchFields(t *testing.T) {
	existing := sampleNote()
	at := existing.UpdatedAt.Add(time.Second)
	p := Patch{Title: strPtr("B"), GoogleDriveID: strPtr("drive-1")}
	merged := Merge(existing, p, at)

	set := p.Fields(merged)

	assert.Equal(t, map[string]any{"title": "B", "google_drive_id": merged.GoogleDriveID, "updated_at": at}, map[string]any(set))
	assert.Equal(t, "drive-1", *set["google_drive_id"].(*string))
	assert.NotContains(t, set, "id")
	assert.NotContains(t, set, "user_id")
	assert.NotContains(t, set, "created_at")
	assert.NotContains(t, set, "content")
}

func TestCreateNoteRequestValidate(t *testing.T) {
	assert.ErrorIs(t, CreateNoteRequest{Content: "x"}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, CreateNoteRequest{Title: "x"}.Validate(), apperr.ErrValidation)
	assert.NoError(t, CreateNoteRequest{Title: "A", Content: "YmFzZTY0"}.Validate())
}
