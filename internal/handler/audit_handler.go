package handler

import (
	"context"
	"net/http"
	"strconv"

	"go-auth-service/internal/model"
)

type auditQuerier interface {
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type AuditHandler struct {
	store auditQuerier
}

func NewAuditHandler(store auditQuerier) *AuditHandler {
	return &AuditHandler{store: store}
}

// Query lists audit entries, newest first. Admin only, enforced by the router.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := model.AuditQuery{
		Action:  q.Get("action"),
		ActorID: q.Get("actor_id"),
		Status:  q.Get("status"),
		From:    q.Get("from"),
		To:      q.Get("to"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		query.Limit = limit
	}

	entries, meta, err := h.store.Query(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, &meta)
}
