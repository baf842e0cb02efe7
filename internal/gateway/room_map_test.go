package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomMapRegisterUnregister(t *testing.T) {
	m := NewRoomMap(nil)
	ctx := context.Background()

	c1 := &Client{UserId: "alice", ConnId: "conn1"}
	c2 := &Client{UserId: "alice", ConnId: "conn2"}

	m.Register(ctx, c1)
	m.Register(ctx, c2)

	assert.True(t, m.HasConnection("alice"))
	assert.Equal(t, 1, m.GetOnlineUserCount())
	assert.Equal(t, 2, m.GetOnlineConnCount())

	clients, ok := m.GetAll("alice")
	require.True(t, ok)
	assert.Len(t, clients, 2)

	// Removing one connection keeps the room alive
	offline := m.Unregister(ctx, c1)
	assert.False(t, offline)
	assert.True(t, m.HasConnection("alice"))

	// Removing the last connection empties the room
	offline = m.Unregister(ctx, c2)
	assert.True(t, offline)
	assert.False(t, m.HasConnection("alice"))
	assert.Equal(t, 0, m.GetOnlineUserCount())
}

func TestRoomMapUnknownUser(t *testing.T) {
	m := NewRoomMap(nil)

	_, ok := m.GetAll("ghost")
	assert.False(t, ok)
	assert.False(t, m.HasConnection("ghost"))
	assert.False(t, m.Unregister(context.Background(), &Client{UserId: "ghost", ConnId: "x"}))
	assert.False(t, m.IsOnline(context.Background(), "ghost"))
}

func TestRoomMapOnlineUserIds(t *testing.T) {
	m := NewRoomMap(nil)
	ctx := context.Background()

	m.Register(ctx, &Client{UserId: "alice", ConnId: "c1"})
	m.Register(ctx, &Client{UserId: "bob", ConnId: "c2"})

	assert.ElementsMatch(t, []string{"alice", "bob"}, m.GetAllOnlineUserIds())
}
