package handler

import (
	"net/http"

	"smartpen/internal/user/model"
	"smartpen/internal/user/service"
	"smartpen/middleware"
	"smartpen/pkg/response"
)

type UserHandler struct {
	Service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{Service: service}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	token, err := h.Service.Register(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, token)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := response.Decode(w, r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	token, err := h.Service.Login(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, token)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.Profile(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}
