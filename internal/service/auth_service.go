package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/event"
	"go-auth-service/internal/model"
	"go-auth-service/pkg/apierror"
)

// UserStore is the user-record collaborator consumed by the auth core.
// User rows are owned elsewhere; this service only reads credentials and
// roles, and writes the last-login timestamp (plus admin-driven creation
// and password changes).
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	List(ctx context.Context) ([]model.AuthUser, error)
	Count(ctx context.Context) (int, error)
}

// SessionStore is the session-record collaborator. It is the single source
// of truth for which refresh tokens are still exchangeable, and its Rotate
// compare-and-set is the sole arbiter of concurrent rotation races.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	ListActiveByUser(ctx context.Context, userID string) ([]model.Session, error)
	Rotate(ctx context.Context, sessionID string, oldHash string, newHash string, fingerprint string, expiresAt time.Time, at time.Time) (bool, error)
	Deactivate(ctx context.Context, sessionID string, at time.Time) (bool, error)
	DeactivateOwned(ctx context.Context, sessionID string, userID string, at time.Time) (bool, error)
	DeactivateAllExcept(ctx context.Context, userID string, keepSessionID string, at time.Time) (int64, error)
	DeactivateOldest(ctx context.Context, userID string, keep int, at time.Time) (int64, error)
	CleanExpired(ctx context.Context) (int64, error)
}

// AuthService orchestrates login, refresh and logout over the stores, the
// token codec and the secret hasher, and emits audit entries and bus events
// for every session-affecting operation.
type AuthService struct {
	users       UserStore
	sessions    SessionStore
	verifier    *CredentialVerifier
	codec       *TokenCodec
	hasher      *SecretHasher
	audit       *AuditRecorder
	bus         event.Bus
	maxSessions int
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	verifier *CredentialVerifier,
	codec *TokenCodec,
	hasher *SecretHasher,
	audit *AuditRecorder,
	bus event.Bus,
	maxSessions int,
) *AuthService {
	if maxSessions <= 0 {
		maxSessions = 5
	}

	return &AuthService{
		users:       users,
		sessions:    sessions,
		verifier:    verifier,
		codec:       codec,
		hasher:      hasher,
		audit:       audit,
		bus:         bus,
		maxSessions: maxSessions,
	}
}

// Login authenticates the credentials, creates a session holding the hash
// of the freshly issued refresh token, and returns the token pair with the
// sanitized user profile.
func (s *AuthService) Login(ctx context.Context, username string, password string, meta model.RequestMeta) (model.TokenPair, error) {
	user, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			s.recordAudit(model.AuditActionLogin, model.AuditStatusFailure,
				model.AuditActor{Username: strings.TrimSpace(username), IP: meta.ClientIP}, meta, "", "invalid credentials")
			s.publish(event.TypeLoginFailed, "", map[string]string{"username": strings.TrimSpace(username)})
		}
		return model.TokenPair{}, err
	}

	now := time.Now().UTC()
	sessionID := uuid.NewString()
	pair, fingerprint, refreshHash, err := s.issueTokenPair(user.Sanitized(), sessionID)
	if err != nil {
		return model.TokenPair{}, err
	}

	sess := model.Session{
		ID:                     sessionID,
		UserID:                 user.ID,
		AccessTokenFingerprint: fingerprint,
		RefreshTokenHash:       refreshHash,
		IsActive:               true,
		ExpiresAt:              now.Add(s.codec.RefreshTTL()),
		CreatedAt:              now,
		LastActivityAt:         now,
		ClientIP:               meta.ClientIP,
		UserAgent:              meta.UserAgent,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return model.TokenPair{}, err
	}

	// Concurrent-session cap, enforced only once the new session exists so
	// a failed login never kills a previously valid session. The new row is
	// the most recent and always survives; eviction keeps the refresh-path
	// hash scan bounded.
	evicted, err := s.sessions.DeactivateOldest(ctx, user.ID, s.maxSessions, now)
	if err != nil {
		slog.Warn("session cap eviction failed", "user_id", user.ID, "error", err)
	} else if evicted > 0 {
		s.publish(event.TypeSessionEvicted, user.ID, map[string]any{"evicted": evicted})
	}

	// Bookkeeping only; a failed timestamp write must not undo the login.
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("last-login update failed", "user_id", user.ID, "error", err)
	}

	s.recordAudit(model.AuditActionLogin, model.AuditStatusSuccess, s.actorFor(user, meta), meta, sessionID, "")
	s.publish(event.TypeSessionCreated, user.ID, map[string]string{"session_id": sessionID})

	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// session's stored hash. Rotation is single-use: once a token has been
// exchanged, presenting it again fails, and two concurrent calls with the
// same token resolve to exactly one winner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta model.RequestMeta) (model.TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		// Signature or expiry failure: nothing trustworthy to attribute
		// the attempt to, so no store lookup happens.
		s.recordAudit(model.AuditActionRefresh, model.AuditStatusFailure,
			model.AuditActor{IP: meta.ClientIP}, meta, "", "token verification failed")
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	active, err := s.sessions.ListActiveByUser(ctx, claims.UserID)
	if err != nil {
		return model.TokenPair{}, err
	}

	// Linear scan over the user's few active sessions; the one-way hash
	// cannot be queried directly. The bcrypt comparisons here are the
	// dominant cost of the refresh path.
	var match *model.Session
	for i := range active {
		if s.hasher.Verify(refreshToken, active[i].RefreshTokenHash) {
			match = &active[i]
			break
		}
	}
	if match == nil {
		// Already rotated, logged out, or stolen-and-raced. Callers get
		// the same error for all of these; the audit trail keeps the
		// claimed user for operator-side investigation.
		s.recordAudit(model.AuditActionRefresh, model.AuditStatusFailure,
			model.AuditActor{UserID: claims.UserID, Username: claims.Username, IP: meta.ClientIP},
			meta, "", "no matching session")
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}
	if err != nil {
		return model.TokenPair{}, err
	}
	if !user.IsActive {
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	pair, fingerprint, newHash, err := s.issueTokenPair(user.Sanitized(), match.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	// The compare-and-set commits the rotation. If it fails the old hash
	// is untouched and the presented token stays valid; the new pair is
	// simply discarded. There is no state where neither token works.
	now := time.Now().UTC()
	rotated, err := s.sessions.Rotate(ctx, match.ID, match.RefreshTokenHash, newHash, fingerprint, now.Add(s.codec.RefreshTTL()), now)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !rotated {
		s.recordAudit(model.AuditActionRefresh, model.AuditStatusFailure,
			s.actorFor(user, meta), meta, match.ID, "lost rotation race")
		return model.TokenPair{}, model.ErrInvalidRefreshToken
	}

	s.recordAudit(model.AuditActionRefresh, model.AuditStatusSuccess, s.actorFor(user, meta), meta, match.ID, "")
	s.publish(event.TypeSessionRotated, user.ID, map[string]string{"session_id": match.ID})

	return pair, nil
}

// Logout ends the session the access token belongs to. It is idempotent:
// an already-ended session, and even an invalid access token, both return
// success so client retries stay simple. Only store outages surface.
func (s *AuthService) Logout(ctx context.Context, accessToken string, meta model.RequestMeta) error {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		s.recordAudit(model.AuditActionLogout, model.AuditStatusFailure,
			model.AuditActor{IP: meta.ClientIP}, meta, "", "token verification failed")
		return nil
	}

	now := time.Now().UTC()
	deactivated, err := s.sessions.Deactivate(ctx, claims.SessionID, now)
	if err != nil {
		return err
	}

	s.recordAudit(model.AuditActionLogout, model.AuditStatusSuccess,
		model.AuditActor{UserID: claims.UserID, Username: claims.Username, IP: meta.ClientIP},
		meta, claims.SessionID, "")
	if deactivated {
		s.publish(event.TypeSessionRevoked, claims.UserID, map[string]string{"session_id": claims.SessionID})
	}

	return nil
}

// ValidateToken is the authenticate operation consumed by every other
// subsystem (via the auth middleware): access token in, identity and role
// claims out.
func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	if expectedType == TokenTypeRefresh {
		return s.codec.VerifyRefresh(tokenString)
	}
	return s.codec.VerifyAccess(tokenString)
}

// Register creates a user record. Admin-only at the HTTP boundary; actor
// identifies the admin performing the creation.
func (s *AuthService) Register(ctx context.Context, username string, password string, role string, actor *model.AuthClaims, meta model.RequestMeta) (model.AuthUser, error) {
	username = strings.TrimSpace(username)
	role = strings.ToLower(strings.TrimSpace(role))

	if username == "" || password == "" {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "username and password are required", "", http.StatusBadRequest)
	}
	if len(password) < 8 {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "password must be at least 8 characters", "password", http.StatusBadRequest)
	}
	if role == "" {
		role = "viewer"
	}
	if role != "admin" && role != "analyst" && role != "viewer" {
		return model.AuthUser{}, apierror.New("BAD_REQUEST", "invalid role", role, http.StatusBadRequest)
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.AuthUser{}, err
	}
	if exists {
		return model.AuthUser{}, apierror.New("ALREADY_EXISTS", "username already exists", username, http.StatusConflict)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.AuthUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthUser{}, err
	}

	auditActor := model.AuditActor{IP: meta.ClientIP}
	if actor != nil {
		auditActor.UserID = actor.UserID
		auditActor.Username = actor.Username
	}
	s.recordAudit(model.AuditActionRegister, model.AuditStatusSuccess, auditActor, meta, user.ID, "")

	return user.Sanitized(), nil
}

// ChangePassword verifies the current password, stores the new hash and
// ends every other session of the user so stolen refresh tokens die with
// the old password.
func (s *AuthService) ChangePassword(ctx context.Context, claims *model.AuthClaims, currentPassword string, newPassword string, meta model.RequestMeta) error {
	if len(newPassword) < 8 {
		return apierror.New("BAD_REQUEST", "password must be at least 8 characters", "new_password", http.StatusBadRequest)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		s.recordAudit(model.AuditActionPasswordChange, model.AuditStatusFailure,
			s.actorFor(user, meta), meta, user.ID, "current password mismatch")
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if _, err := s.sessions.DeactivateAllExcept(ctx, user.ID, claims.SessionID, time.Now().UTC()); err != nil {
		slog.Warn("deactivating other sessions after password change failed", "user_id", user.ID, "error", err)
	}

	s.recordAudit(model.AuditActionPasswordChange, model.AuditStatusSuccess, s.actorFor(user, meta), meta, user.ID, "")
	s.publish(event.TypePasswordChanged, user.ID, nil)

	return nil
}

// Sessions lists the caller's active sessions, flagging the current one.
func (s *AuthService) Sessions(ctx context.Context, claims *model.AuthClaims) ([]model.SessionInfo, error) {
	active, err := s.sessions.ListActiveByUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	infos := make([]model.SessionInfo, 0, len(active))
	for _, sess := range active {
		infos = append(infos, sess.Info(claims.SessionID))
	}
	return infos, nil
}

// RevokeSession ends one of the caller's own sessions.
func (s *AuthService) RevokeSession(ctx context.Context, claims *model.AuthClaims, sessionID string, meta model.RequestMeta) error {
	revoked, err := s.sessions.DeactivateOwned(ctx, sessionID, claims.UserID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !revoked {
		return model.ErrSessionNotFound
	}

	s.recordAudit(model.AuditActionSessionRevoke, model.AuditStatusSuccess,
		model.AuditActor{UserID: claims.UserID, Username: claims.Username, IP: meta.ClientIP},
		meta, sessionID, "")
	s.publish(event.TypeSessionRevoked, claims.UserID, map[string]string{"session_id": sessionID})

	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Sanitized(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.AuthUser, error) {
	return s.users.List(ctx)
}

// CleanupExpiredSessions deletes rows past their absolute expiry; called
// from the app's GC ticker.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.CleanExpired(ctx)
}

// SeedDefaultAdmin creates the bootstrap admin account when the user table
// is empty.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		password = "admin123"
		slog.Warn("DEFAULT_ADMIN_PASSWORD not set, seeding admin with the default password")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	slog.Info("seeded default admin user", "user_id", admin.ID)
	return nil
}

func (s *AuthService) issueTokenPair(user model.AuthUser, sessionID string) (model.TokenPair, string, string, error) {
	accessToken, jti, err := s.codec.IssueAccess(user, sessionID)
	if err != nil {
		return model.TokenPair{}, "", "", err
	}

	refreshToken, err := s.codec.IssueRefresh(user)
	if err != nil {
		return model.TokenPair{}, "", "", err
	}

	refreshHash, err := s.hasher.Hash(refreshToken)
	if err != nil {
		return model.TokenPair{}, "", "", err
	}

	pair := model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		User:         user,
	}
	return pair, jti, refreshHash, nil
}

func (s *AuthService) actorFor(user model.User, meta model.RequestMeta) model.AuditActor {
	return model.AuditActor{UserID: user.ID, Username: user.Username, IP: meta.ClientIP}
}

func (s *AuthService) recordAudit(action string, status string, actor model.AuditActor, meta model.RequestMeta, resource string, errText string) {
	s.audit.Record(model.AuditEntry{
		Action:    action,
		Actor:     actor,
		Status:    status,
		Resource:  resource,
		UserAgent: meta.UserAgent,
		Path:      meta.Path,
		Error:     errText,
	})
}

func (s *AuthService) publish(t event.Type, actorID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	})
}
