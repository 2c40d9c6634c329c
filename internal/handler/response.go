package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrInvalidCredentials),
		errors.Is(err, model.ErrInvalidRefreshToken),
		errors.Is(err, model.ErrInvalidAccessToken):
		// All three security kinds collapse into one indistinguishable
		// payload; the audit trail keeps the specifics.
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "authentication failed"
	case errors.Is(err, model.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		body.Code = "STORE_UNAVAILABLE"
		body.Message = "backing store unavailable, retry later"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "User already exists"
	case errors.Is(err, model.ErrSessionNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Session not found"
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
