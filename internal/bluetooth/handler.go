package handler

import (
	"net/http"

	"smartpen/internal/bluetooth/model"
	"smartpen/internal/bluetooth/service"
	"smartpen/internal/identity"
	"smartpen/middleware"
	"smartpen/pkg/response"

	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: service}
}

func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req model.BatchRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	owner := identity.Owner(middleware.UserID(r.Context()))
	id, err := h.Service.Ingest(r.Context(), owner, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, model.IngestResponse{Message: "Bluetooth data received", ID: id})
}

func (h *SessionHandler) GetData(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "session_id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	sess, err := h.Service.Get(r.Context(), id, identity.Owner(middleware.UserID(r.Context())))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, sess)
}
