package handler

import (
	"context"
	"net/http"

	"go-auth-service/pkg/apierror"
)

type pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		writeError(w, apierror.New("UNHEALTHY", "database unreachable", "", http.StatusServiceUnavailable))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
