package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

// AuthAPI is the slice of the session manager the HTTP layer consumes.
type AuthAPI interface {
	Login(ctx context.Context, username string, password string, meta model.RequestMeta) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, meta model.RequestMeta) (model.TokenPair, error)
	Logout(ctx context.Context, accessToken string, meta model.RequestMeta) error
	Register(ctx context.Context, username string, password string, role string, actor *model.AuthClaims, meta model.RequestMeta) (model.AuthUser, error)
	ChangePassword(ctx context.Context, claims *model.AuthClaims, currentPassword string, newPassword string, meta model.RequestMeta) error
	Sessions(ctx context.Context, claims *model.AuthClaims) ([]model.SessionInfo, error)
	RevokeSession(ctx context.Context, claims *model.AuthClaims, sessionID string, meta model.RequestMeta) error
	GetUserByID(ctx context.Context, userID string) (model.AuthUser, error)
}

type AuthHandler struct {
	service AuthAPI
}

func NewAuthHandler(service AuthAPI) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Login(r.Context(), payload.Username, payload.Password, metaFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	payload.RefreshToken = strings.TrimSpace(payload.RefreshToken)
	if payload.RefreshToken == "" {
		writeError(w, apierror.New("BAD_REQUEST", "refresh_token is required", "refresh_token", http.StatusBadRequest))
		return
	}

	tokens, err := h.service.Refresh(r.Context(), payload.RefreshToken, metaFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, tokens, nil)
}

// Logout ends the session the presented access token belongs to. The token
// comes from the Authorization header; an invalid one is treated as already
// logged out, so the endpoint always succeeds unless the store is down.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token := ""
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		token = strings.TrimSpace(header[7:])
	}

	if err := h.service.Logout(r.Context(), token, metaFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.LogoutResponse{LoggedOut: true}, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidAccessToken)
		return
	}

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Password, payload.Role, claims, metaFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidAccessToken)
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims, payload.CurrentPassword, payload.NewPassword, metaFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"changed": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidAccessToken)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidAccessToken)
		return
	}

	sessions, err := h.service.Sessions(r.Context(), claims)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessions, nil)
}

func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidAccessToken)
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "session_id"))
	if sessionID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "session_id is required", "session_id", http.StatusBadRequest))
		return
	}

	if err := h.service.RevokeSession(r.Context(), claims, sessionID, metaFromRequest(r)); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"revoked": true}, nil)
}
