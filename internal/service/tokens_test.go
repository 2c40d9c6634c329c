package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return codec
}

func codecUser() model.AuthUser {
	return model.AuthUser{ID: "user-1", Username: "alice", Role: "analyst"}
}

func TestCodecRequiresDistinctSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec("", "refresh", time.Minute, time.Hour)
	require.Error(t, err)

	_, err = NewTokenCodec("access", "", time.Minute, time.Hour)
	require.Error(t, err)

	_, err = NewTokenCodec("same", "same", time.Minute, time.Hour)
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	token, jti, err := codec.IssueAccess(codecUser(), "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "analyst", claims.Role)
	require.Equal(t, TokenTypeAccess, claims.Type)
	require.Equal(t, jti, claims.TokenID)
	require.Equal(t, "session-1", claims.SessionID)
}

func TestRefreshTokenCarriesNoSessionID(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	token, err := codec.IssueRefresh(codecUser())
	require.NoError(t, err)

	claims, err := codec.VerifyRefresh(token)
	require.NoError(t, err)
	require.Equal(t, TokenTypeRefresh, claims.Type)
	require.Empty(t, claims.SessionID)
}

func TestTokenTypeDiscriminatorEnforced(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	access, _, err := codec.IssueAccess(codecUser(), "session-1")
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(codecUser())
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, model.ErrInvalidRefreshToken)

	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, model.ErrInvalidAccessToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	codec, err := NewTokenCodec("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	require.NoError(t, err)

	access, _, err := codec.IssueAccess(codecUser(), "session-1")
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(codecUser())
	require.NoError(t, err)

	_, err = codec.VerifyAccess(access)
	require.ErrorIs(t, err, model.ErrInvalidAccessToken)

	_, err = codec.VerifyRefresh(refresh)
	require.ErrorIs(t, err, model.ErrInvalidRefreshToken)
}

func TestTokenFromDifferentSecretRejected(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	other, err := NewTokenCodec("other-access", "other-refresh", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	forged, _, err := other.IssueAccess(codecUser(), "session-1")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(forged)
	require.ErrorIs(t, err, model.ErrInvalidAccessToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	for _, token := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := codec.VerifyAccess(token)
		require.ErrorIs(t, err, model.ErrInvalidAccessToken, "token %q", token)
	}
}
