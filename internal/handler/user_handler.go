package handler

import (
	"context"
	"net/http"

	"go-auth-service/internal/model"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]model.AuthUser, error)
}

type UserHandler struct {
	service userLister
}

func NewUserHandler(service userLister) *UserHandler {
	return &UserHandler{service: service}
}

// List returns all active accounts. Admin only, enforced by the router.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users, &model.Meta{Total: len(users)})
}
