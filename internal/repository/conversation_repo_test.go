package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateDirect(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, created, err := repos.Conversation.FindOrCreateDirect(ctx, "conv1", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.ConversationDirect, conv.Type)
	require.NotNil(t, conv.PairKey)
	assert.Equal(t, "alice:bob", *conv.PairKey)

	// Same pair in either order resolves to the same conversation
	again, created, err := repos.Conversation.FindOrCreateDirect(ctx, "conv2", "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.Id, again.Id)

	// Exactly two member rows, deterministic slots
	members, err := repos.Conversation.GetMembers(ctx, conv.Id)
	require.NoError(t, err)
	require.Len(t, members, 2)
	bySlot := map[int32]string{}
	for _, m := range members {
		bySlot[m.Slot] = m.UserId
	}
	assert.Equal(t, "alice", bySlot[entity.SlotFirst])
	assert.Equal(t, "bob", bySlot[entity.SlotSecond])
}

func TestFindOrCreateDirectConcurrent(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	const n = 8
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, _, err := repos.Conversation.FindOrCreateDirect(ctx, fmt.Sprintf("conv-%d", i), "alice", "bob")
			if err != nil {
				t.Errorf("concurrent find-or-create failed: %v", err)
				return
			}
			results[i] = conv.Id
		}(i)
	}
	wg.Wait()

	// Every caller converged on a single conversation
	for i := 1; i < n; i++ {
		assert.Equal(t, results[0], results[i])
	}

	var count int64
	require.NoError(t, repos.DB.Model(&entity.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateGroup(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	for _, id := range []string{"alice", "bob", "carol"} {
		seedUser(t, repos, id)
	}

	conv := &entity.Conversation{
		Id:        "group1",
		Type:      entity.ConversationGroup,
		Name:      "trio",
		CreatorId: "alice",
	}
	require.NoError(t, repos.Conversation.CreateGroup(ctx, conv, []string{"alice", "bob", "carol"}))

	members, err := repos.Conversation.GetMembers(ctx, "group1")
	require.NoError(t, err)
	require.Len(t, members, 3)
	for _, m := range members {
		assert.Equal(t, entity.SlotGroup, m.Slot)
		assert.Zero(t, m.UnreadCount)
	}
}

func TestIncrementAndResetUnread(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.FindOrCreateDirect(ctx, "conv1", "alice", "bob")
	require.NoError(t, err)

	// K increments land as exactly K, even concurrently
	const k = 10
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repos.Conversation.IncrementUnread(ctx, repos.DB, conv.Id, "alice"); err != nil {
				t.Errorf("increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	member, err := repos.Conversation.GetMember(ctx, conv.Id, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(k), member.UnreadCount)

	// Sender's own counter stays untouched
	sender, err := repos.Conversation.GetMember(ctx, conv.Id, "alice")
	require.NoError(t, err)
	assert.Zero(t, sender.UnreadCount)

	// Reset drops to zero and repeating it changes nothing
	require.NoError(t, repos.Conversation.ResetUnread(ctx, conv.Id, "bob"))
	require.NoError(t, repos.Conversation.ResetUnread(ctx, conv.Id, "bob"))

	member, err = repos.Conversation.GetMember(ctx, conv.Id, "bob")
	require.NoError(t, err)
	assert.Zero(t, member.UnreadCount)
}

func TestListByUserOrdering(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	for _, id := range []string{"alice", "bob", "carol"} {
		seedUser(t, repos, id)
	}

	first, _, err := repos.Conversation.FindOrCreateDirect(ctx, "conv1", "alice", "bob")
	require.NoError(t, err)
	second, _, err := repos.Conversation.FindOrCreateDirect(ctx, "conv2", "alice", "carol")
	require.NoError(t, err)

	// Activity on the older conversation moves it to the front
	require.NoError(t, repos.Conversation.TouchLastMessage(ctx, repos.DB, first.Id, entity.NowUnixMilli()+1000))

	convs, err := repos.Conversation.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.Id, convs[0].Id)
	assert.Equal(t, second.Id, convs[1].Id)

	// Non-member sees nothing
	convs, err = repos.Conversation.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, convs)
}
