package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, repos *Repositories, convId string, n int) []*entity.Message {
	t.Helper()
	base := entity.NowUnixMilli()
	msgs := make([]*entity.Message, 0, n)
	for i := 0; i < n; i++ {
		msg := &entity.Message{
			Id:             fmt.Sprintf("msg-%d", i),
			ConversationId: convId,
			SenderId:       "alice",
			Content:        fmt.Sprintf("message %d", i),
			CreatedAt:      base + int64(i),
		}
		require.NoError(t, repos.Message.Create(context.Background(), repos.DB, msg))
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestListBeforePagination(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	msgs := seedMessages(t, repos, "conv1", 25)

	// First page: the 10 newest, ascending for display
	page, err := repos.Message.ListBefore(ctx, "conv1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, msgs[15].Id, page[0].Id)
	assert.Equal(t, msgs[24].Id, page[9].Id)

	// Walk backwards through the full history, no duplicates or gaps
	seen := map[string]bool{}
	cursor := int64(0)
	for {
		page, err := repos.Message.ListBefore(ctx, "conv1", cursor, 10)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, m := range page {
			assert.False(t, seen[m.Id], "duplicate message %s", m.Id)
			seen[m.Id] = true
		}
		cursor = page[0].CreatedAt
		if len(page) < 10 {
			break
		}
	}
	assert.Len(t, seen, 25)
}

func TestGetLatest(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	latest, err := repos.Message.GetLatest(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, latest)

	msgs := seedMessages(t, repos, "conv1", 3)
	latest, err = repos.Message.GetLatest(ctx, "conv1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, msgs[2].Id, latest.Id)
}

func TestMarkReadExceptSender(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedMessages(t, repos, "conv1", 3)

	bobMsg := &entity.Message{
		Id:             "bob-msg",
		ConversationId: "conv1",
		SenderId:       "bob",
		Content:        "mine",
		CreatedAt:      entity.NowUnixMilli() + 100,
	}
	require.NoError(t, repos.Message.Create(ctx, repos.DB, bobMsg))

	now := entity.NowUnixMilli()
	require.NoError(t, repos.Message.MarkReadExceptSender(ctx, "conv1", "bob", now))

	var unreadFromAlice int64
	require.NoError(t, repos.DB.Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id = ? AND is_read = ?", "conv1", "alice", false).
		Count(&unreadFromAlice).Error)
	assert.Zero(t, unreadFromAlice)

	// Bob's own message stays unread; reading never touches own sends
	var own entity.Message
	require.NoError(t, repos.DB.Where("id = ?", "bob-msg").First(&own).Error)
	assert.False(t, own.IsRead)

	// Repeating the mark is harmless
	require.NoError(t, repos.Message.MarkReadExceptSender(ctx, "conv1", "bob", now))
}
