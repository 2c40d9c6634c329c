package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-auth-service/internal/model"
)

// SessionRepository is the session store adapter. Sessions are keyed by id
// with a secondary index on (user_id, is_active); lookups during refresh go
// through the owning user because the stored refresh-token hash is one-way
// and cannot be queried directly.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s model.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions
		 (id, user_id, access_token_fingerprint, refresh_token_hash, is_active,
		  expires_at, created_at, last_activity_at, client_ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID, s.AccessTokenFingerprint, s.RefreshTokenHash, s.IsActive,
		s.ExpiresAt, s.CreatedAt, s.LastActivityAt, s.ClientIP, s.UserAgent)
	if err != nil {
		return wrapStoreErr("create session", err)
	}
	return nil
}

// ListActiveByUser returns the user's unexpired active sessions, oldest
// first. Callers must not assume exactly one row.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, access_token_fingerprint, refresh_token_hash, is_active,
		        expires_at, created_at, last_activity_at, client_ip, user_agent
		 FROM sessions
		 WHERE user_id = $1 AND is_active AND expires_at > now()
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, wrapStoreErr("list active sessions", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, 4)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.AccessTokenFingerprint, &s.RefreshTokenHash,
			&s.IsActive, &s.ExpiresAt, &s.CreatedAt, &s.LastActivityAt, &s.ClientIP, &s.UserAgent); err != nil {
			return nil, wrapStoreErr("scan session", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Rotate swaps the stored refresh-token hash in one compare-and-set
// statement. The WHERE clause on the old hash is what makes concurrent
// refresh calls with the same token resolve to exactly one winner: the
// loser's UPDATE matches zero rows and Rotate reports false.
func (r *SessionRepository) Rotate(ctx context.Context, sessionID string, oldHash string, newHash string, fingerprint string, expiresAt time.Time, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET refresh_token_hash = $3, access_token_fingerprint = $4,
		     expires_at = $5, last_activity_at = $6
		 WHERE id = $1 AND refresh_token_hash = $2 AND is_active AND expires_at > now()`,
		sessionID, oldHash, newHash, fingerprint, expiresAt, at)
	if err != nil {
		return false, wrapStoreErr("rotate session", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Deactivate ends one session and clears its stored hash so the session can
// never be refreshed again. Deactivating an already-inactive or unknown
// session is not an error.
func (r *SessionRepository) Deactivate(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET is_active = FALSE, refresh_token_hash = '', last_activity_at = $2
		 WHERE id = $1 AND is_active`,
		sessionID, at)
	if err != nil {
		return false, wrapStoreErr("deactivate session", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeactivateOwned deactivates a session only if it belongs to the given
// user. Used for self-service session revocation.
func (r *SessionRepository) DeactivateOwned(ctx context.Context, sessionID string, userID string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET is_active = FALSE, refresh_token_hash = '', last_activity_at = $3
		 WHERE id = $1 AND user_id = $2 AND is_active`,
		sessionID, userID, at)
	if err != nil {
		return false, wrapStoreErr("deactivate owned session", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeactivateAllExcept ends every active session of the user except the one
// given. Used after a password change.
func (r *SessionRepository) DeactivateAllExcept(ctx context.Context, userID string, keepSessionID string, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET is_active = FALSE, refresh_token_hash = '', last_activity_at = $3
		 WHERE user_id = $1 AND id <> $2 AND is_active`,
		userID, keepSessionID, at)
	if err != nil {
		return 0, wrapStoreErr("deactivate other sessions", err)
	}
	return tag.RowsAffected(), nil
}

// DeactivateOldest evicts the user's oldest active sessions until at most
// keep remain. Enforces the per-user concurrent-session cap at login.
func (r *SessionRepository) DeactivateOldest(ctx context.Context, userID string, keep int, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions
		 SET is_active = FALSE, refresh_token_hash = '', last_activity_at = $3
		 WHERE id IN (
		     SELECT id FROM sessions
		     WHERE user_id = $1 AND is_active AND expires_at > now()
		     ORDER BY created_at DESC
		     OFFSET $2
		 )`,
		userID, keep, at)
	if err != nil {
		return 0, wrapStoreErr("deactivate oldest sessions", err)
	}
	return tag.RowsAffected(), nil
}

// CleanExpired removes sessions past their absolute expiry. Housekeeping
// only; expired rows are already unusable.
func (r *SessionRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, wrapStoreErr("clean expired sessions", err)
	}
	return tag.RowsAffected(), nil
}
