package handler

import (
	"net/http"

	"go-auth-service/internal/middleware"
	"go-auth-service/internal/model"
)

func metaFromRequest(r *http.Request) model.RequestMeta {
	return model.RequestMeta{
		ClientIP:  middleware.ExtractClientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
	}
}
