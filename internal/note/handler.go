package handler

import (
	"net/http"

	"smartpen/internal/identity"
	"smartpen/internal/note/model"
	"smartpen/internal/note/service"
	"smartpen/middleware"
	"smartpen/pkg/response"

	"github.com/go-chi/chi/v5"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req model.CreateNoteRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.Service.Create(r.Context(), owner(r), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Service.List(r.Context(), owner(r), r.URL.Query().Get("q"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.Service.Get(r.Context(), id, owner(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, note)
}

// UpdateNote serves both PUT and PATCH; either way only the supplied fields
// change.
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	var patch model.Patch
	if err := response.Decode(w, r, &patch); err != nil {
		response.Error(w, r, err)
		return
	}

	note, err := h.Service.Update(r.Context(), id, owner(r), patch)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id, owner(r)); err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, model.DeleteNoteResponse{Message: "Note deleted successfully"})
}

func owner(r *http.Request) identity.Owner {
	return identity.Owner(middleware.UserID(r.Context()))
}
