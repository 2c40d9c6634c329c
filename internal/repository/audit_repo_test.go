package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
)

func TestBuildAuditFilterEmptyQuery(t *testing.T) {
	t.Parallel()

	where, args := buildAuditFilter(model.AuditQuery{})
	require.Empty(t, where)
	require.Empty(t, args)
}

func TestBuildAuditFilterSingleField(t *testing.T) {
	t.Parallel()

	where, args := buildAuditFilter(model.AuditQuery{Action: "login"})
	require.Equal(t, "WHERE lower(action) = lower($1)", where)
	require.Equal(t, []any{"login"}, args)
}

func TestBuildAuditFilterNumbersArgsSequentially(t *testing.T) {
	t.Parallel()

	where, args := buildAuditFilter(model.AuditQuery{
		Action:  "refresh",
		ActorID: "user-1",
		Status:  "failure",
		From:    "2026-01-01T00:00:00Z",
		To:      "2026-02-01T00:00:00Z",
	})

	require.Equal(t,
		"WHERE lower(action) = lower($1) AND actor_user_id = $2 AND lower(status) = lower($3)"+
			" AND occurred_at >= $4::timestamptz AND occurred_at <= $5::timestamptz",
		where)
	require.Equal(t, []any{"refresh", "user-1", "failure", "2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z"}, args)
}

func TestBuildAuditFilterSkipsBlankFields(t *testing.T) {
	t.Parallel()

	where, args := buildAuditFilter(model.AuditQuery{Action: "  ", Status: "success"})
	require.Equal(t, "WHERE lower(status) = lower($1)", where)
	require.Equal(t, []any{"success"}, args)
}
