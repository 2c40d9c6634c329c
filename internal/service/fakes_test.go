package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-auth-service/internal/model"
)

// fakeUserStore is an in-memory UserStore keyed by id.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserStore(users ...model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LastLoginAt = &at
		s.users[userID] = u
	}
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *fakeUserStore) List(_ context.Context) ([]model.AuthUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuthUser, 0, len(s.users))
	for _, u := range s.users {
		if u.IsActive {
			out = append(out, u.Sanitized())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *fakeUserStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// fakeSessionStore is an in-memory SessionStore whose Rotate performs the
// same compare-and-set the SQL implementation does, under one mutex, so
// concurrent rotation has exactly one winner.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]model.Session)}
}

func (s *fakeSessionStore) Create(_ context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *fakeSessionStore) ListActiveByUser(_ context.Context, userID string) ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	out := make([]model.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive && sess.ExpiresAt.After(now) {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeSessionStore) Rotate(_ context.Context, sessionID string, oldHash string, newHash string, fingerprint string, expiresAt time.Time, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || !sess.IsActive || sess.RefreshTokenHash != oldHash || !sess.ExpiresAt.After(at) {
		return false, nil
	}
	sess.RefreshTokenHash = newHash
	sess.AccessTokenFingerprint = fingerprint
	sess.ExpiresAt = expiresAt
	sess.LastActivityAt = at
	s.sessions[sessionID] = sess
	return true, nil
}

func (s *fakeSessionStore) Deactivate(_ context.Context, sessionID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	sess.RefreshTokenHash = ""
	sess.LastActivityAt = at
	s.sessions[sessionID] = sess
	return true, nil
}

func (s *fakeSessionStore) DeactivateOwned(_ context.Context, sessionID string, userID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || !sess.IsActive || sess.UserID != userID {
		return false, nil
	}
	sess.IsActive = false
	sess.RefreshTokenHash = ""
	sess.LastActivityAt = at
	s.sessions[sessionID] = sess
	return true, nil
}

func (s *fakeSessionStore) DeactivateAllExcept(_ context.Context, userID string, keepSessionID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive && id != keepSessionID {
			sess.IsActive = false
			sess.RefreshTokenHash = ""
			sess.LastActivityAt = at
			s.sessions[id] = sess
			n++
		}
	}
	return n, nil
}

func (s *fakeSessionStore) DeactivateOldest(_ context.Context, userID string, keep int, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]model.Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			active = append(active, sess)
		}
	}
	if len(active) <= keep {
		return 0, nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	var n int64
	for _, sess := range active[keep:] {
		sess.IsActive = false
		sess.RefreshTokenHash = ""
		sess.LastActivityAt = at
		s.sessions[sess.ID] = sess
		n++
	}
	return n, nil
}

func (s *fakeSessionStore) CleanExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for id, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeSessionStore) get(sessionID string) (model.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *fakeSessionStore) activeCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			n++
		}
	}
	return n
}

// memorySink collects audit entries appended by the recorder.
type memorySink struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (s *memorySink) Append(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) all() []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
