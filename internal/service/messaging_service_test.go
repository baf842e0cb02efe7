package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessagingService(t *testing.T) (*MessagingService, *recordingPusher) {
	t.Helper()
	repos := setupTestRepos(t)
	for _, id := range []string{"alice", "bob", "carol"} {
		seedUser(t, repos, id)
	}
	svc := NewMessagingService(repos)
	pusher := &recordingPusher{}
	svc.SetPusher(pusher)
	return svc, pusher
}

func TestFindOrCreateDirectValidation(t *testing.T) {
	svc, _ := newMessagingService(t)
	ctx := context.Background()

	_, err := svc.FindOrCreateDirect(ctx, "alice", "alice")
	assert.Equal(t, errcode.ErrSelfConversation, err)

	_, err = svc.FindOrCreateDirect(ctx, "alice", "ghost")
	assert.Equal(t, errcode.ErrUserNotFound, err)

	conv, err := svc.FindOrCreateDirect(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, conv.Members, 1)
	assert.Equal(t, "bob", conv.Members[0].Id)

	// Repeated call returns the same conversation
	again, err := svc.FindOrCreateDirect(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, conv.Id, again.Id)
}

func TestSendAndReceiveFlow(t *testing.T) {
	svc, pusher := newMessagingService(t)
	ctx := context.Background()

	conv, err := svc.FindOrCreateDirect(ctx, "alice", "bob")
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, conv.Id, "alice", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)

	// Bob got the message event, alice got the sent ack
	newMsgs := pusher.byEvent(entity.EventNewMessage)
	require.Len(t, newMsgs, 1)
	assert.Equal(t, "bob", newMsgs[0].UserId)
	payload := newMsgs[0].Payload.(*entity.NewMessagePayload)
	assert.Equal(t, msg.Id, payload.Id)
	assert.Equal(t, "alice", payload.SenderId)

	acks := pusher.byEvent(entity.EventMessageSent)
	require.Len(t, acks, 1)
	assert.Equal(t, "alice", acks[0].UserId)

	// Bob's list shows unread 1 and the latest message
	convs, err := svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, int64(1), convs[0].UnreadCount)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "hi", convs[0].LastMessage.Content)

	// Fetching history resets bob's unread counter and marks the
	// message read for the next fetch
	page, err := svc.GetMessages(ctx, conv.Id, "bob", 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)

	convs, err = svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, convs[0].UnreadCount)

	page, err = svc.GetMessages(ctx, conv.Id, "bob", 50, 0)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.True(t, page.Messages[0].IsRead)

	// Fetching again is harmless
	_, err = svc.GetMessages(ctx, conv.Id, "bob", 50, 0)
	require.NoError(t, err)
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := newMessagingService(t)
	ctx := context.Background()

	conv, err := svc.FindOrCreateDirect(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.Id, "alice", "")
	assert.Equal(t, errcode.ErrContentEmpty, err)

	long := make([]byte, entity.MaxContentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.SendMessage(ctx, conv.Id, "alice", string(long))
	assert.Equal(t, errcode.ErrContentTooLong, err)

	_, err = svc.SendMessage(ctx, "ghost-conv", "alice", "hi")
	assert.Equal(t, errcode.ErrConvNotFound, err)

	// Non-member cannot send
	_, err = svc.SendMessage(ctx, conv.Id, "carol", "hi")
	assert.Equal(t, errcode.ErrNoPermission, err)
}

func TestGetMessagesForbidden(t *testing.T) {
	svc, _ := newMessagingService(t)
	ctx := context.Background()

	conv, err := svc.FindOrCreateDirect(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = svc.GetMessages(ctx, conv.Id, "carol", 50, 0)
	assert.Equal(t, errcode.ErrNoPermission, err)

	_, err = svc.GetMessages(ctx, "ghost-conv", "alice", 50, 0)
	assert.Equal(t, errcode.ErrConvNotFound, err)
}

func TestGetMessagesCursor(t *testing.T) {
	svc, _ := newMessagingService(t)
	ctx := context.Background()

	conv, err := svc.FindOrCreateDirect(ctx, "alice", "bob")
	require.NoError(t, err)

	// Space the sends out so every message lands on a distinct
	// millisecond; the cursor is timestamp-based.
	for i := 0; i < 25; i++ {
		_, err := svc.SendMessage(ctx, conv.Id, "alice", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	// Page through the full history without duplicates or gaps
	seen := map[string]bool{}
	cursor := int64(0)
	pages := 0
	for {
		page, err := svc.GetMessages(ctx, conv.Id, "bob", 10, cursor)
		require.NoError(t, err)
		for _, m := range page.Messages {
			assert.False(t, seen[m.Id], "duplicate message %s", m.Id)
			seen[m.Id] = true
		}
		pages++
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Len(t, seen, 25)
	assert.GreaterOrEqual(t, pages, 3)
}

func TestCreateGroupFlow(t *testing.T) {
	svc, pusher := newMessagingService(t)
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, "alice", &CreateGroupRequest{Name: "trio"})
	assert.Equal(t, errcode.ErrEmptyGroup, err)

	_, err = svc.CreateGroup(ctx, "alice", &CreateGroupRequest{Name: "trio", MemberIds: []string{"ghost"}})
	assert.Equal(t, errcode.ErrUserNotFound, err)

	conv, err := svc.CreateGroup(ctx, "alice", &CreateGroupRequest{
		Name:      "trio",
		MemberIds: []string{"bob", "carol", "alice"}, // creator dedup
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ConversationGroup, conv.Type)
	assert.Len(t, conv.Members, 2)

	// A send fans out to every other member
	_, err = svc.SendMessage(ctx, conv.Id, "alice", "hello group")
	require.NoError(t, err)

	newMsgs := pusher.byEvent(entity.EventNewMessage)
	targets := make([]string, 0, len(newMsgs))
	for _, e := range newMsgs {
		targets = append(targets, e.UserId)
	}
	assert.ElementsMatch(t, []string{"bob", "carol"}, targets)

	// Both recipients have unread 1
	for _, userId := range []string{"bob", "carol"} {
		convs, err := svc.ListConversations(ctx, userId)
		require.NoError(t, err)
		require.Len(t, convs, 1)
		assert.Equal(t, int64(1), convs[0].UnreadCount)
	}
}
