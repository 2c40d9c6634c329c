package model

// RequestMeta is the client metadata captured alongside every
// session-affecting operation. It feeds audit entries and session rows,
// never authorization decisions.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Path      string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}
