package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, repos *Repositories, id, recipient string, read bool) {
	t.Helper()
	require.NoError(t, repos.Notification.Create(context.Background(), &entity.Notification{
		Id:          id,
		RecipientId: recipient,
		ActorId:     "actor",
		Type:        entity.NotificationLike,
		IsRead:      read,
	}))
}

func TestNotificationMarkReadIdempotent(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedNotification(t, repos, "n1", "alice", false)

	require.NoError(t, repos.Notification.MarkRead(ctx, "alice", "n1"))
	require.NoError(t, repos.Notification.MarkRead(ctx, "alice", "n1"))

	notif, err := repos.Notification.GetById(ctx, "alice", "n1")
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.True(t, notif.IsRead)

	count, err := repos.Notification.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationRecipientScope(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedNotification(t, repos, "n1", "alice", false)

	// Another user cannot see or mark alice's notification
	notif, err := repos.Notification.GetById(ctx, "bob", "n1")
	require.NoError(t, err)
	assert.Nil(t, notif)

	require.NoError(t, repos.Notification.MarkRead(ctx, "bob", "n1"))
	count, err := repos.Notification.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationMarkAllRead(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		seedNotification(t, repos, fmt.Sprintf("n%d", i), "alice", false)
	}
	seedNotification(t, repos, "other", "bob", false)

	require.NoError(t, repos.Notification.MarkAllRead(ctx, "alice"))

	count, err := repos.Notification.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other recipients are untouched
	count, err = repos.Notification.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationListNewestFirst(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	base := entity.NowUnixMilli()
	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Notification.Create(ctx, &entity.Notification{
			Id:          fmt.Sprintf("n%d", i),
			RecipientId: "alice",
			ActorId:     "actor",
			Type:        entity.NotificationFollow,
			CreatedAt:   base + int64(i),
		}))
	}

	notifs, err := repos.Notification.ListByRecipient(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Len(t, notifs, 3)
	assert.Equal(t, "n2", notifs[0].Id)
	assert.Equal(t, "n0", notifs[2].Id)
}
