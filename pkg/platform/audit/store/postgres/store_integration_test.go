//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	id "welfarehub/pkg/domain"
	audit "welfarehub/pkg/platform/audit"
	auditpg "welfarehub/pkg/platform/audit/store/postgres"
	"welfarehub/pkg/testutil/containers"
)

func TestAuditStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pg.TruncateTables(ctx, "audit_events"))

	store := auditpg.New(pg.DB)
	userID := id.NewUserID()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx,
		audit.Event{Timestamp: base, Action: audit.ActionBookmarkCreated, UserID: userID, Subject: "bookmark:1", RequestID: "r1"},
		audit.Event{Timestamp: base.Add(time.Minute), Action: audit.ActionAdminRequest, ActorID: "admin", Subject: "POST /admin/welfare/sync", Outcome: "202"},
		audit.Event{Timestamp: base.Add(2 * time.Minute), Action: audit.ActionBookmarkDeleted, UserID: userID, Subject: "bookmark:1"},
	))

	mine, err := store.ListByUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, audit.ActionBookmarkDeleted, mine[0].Action)
	require.Equal(t, userID, mine[1].UserID)
	require.Equal(t, "r1", mine[1].RequestID)

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.True(t, recent[1].UserID.IsNil())
	require.Equal(t, "admin", recent[1].ActorID)
}
