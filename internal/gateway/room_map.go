package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kinshipapp/kinship/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// RoomMap tracks the per-user rooms of this instance. A room is the set
// of live connections one user holds here; redis presence keys extend
// the online view across instances.
type RoomMap struct {
	mu    sync.RWMutex
	rooms map[string]*Room // userId -> Room
	rdb   *redis.Client
}

// Room holds all connections of one user on this instance
type Room struct {
	Clients []*Client
	Time    time.Time
}

// NewRoomMap creates a new RoomMap
func NewRoomMap(rdb *redis.Client) *RoomMap {
	return &RoomMap{
		rooms: make(map[string]*Room),
		rdb:   rdb,
	}
}

// Register adds a client to its user's room
func (m *RoomMap) Register(ctx context.Context, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[client.UserId]
	if !exists {
		room = &Room{
			Clients: make([]*Client, 0, 4),
		}
		m.rooms[client.UserId] = room
	}

	room.Clients = append(room.Clients, client)
	room.Time = time.Now()

	m.setOnline(ctx, client.UserId)
}

// Unregister removes a client from its user's room. Returns true when
// the room emptied, meaning the user fully disconnected from this
// instance.
func (m *RoomMap) Unregister(ctx context.Context, client *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[client.UserId]
	if !exists {
		return false
	}

	newClients := make([]*Client, 0, len(room.Clients))
	for _, c := range room.Clients {
		if c.ConnId != client.ConnId {
			newClients = append(newClients, c)
		}
	}
	room.Clients = newClients

	if len(room.Clients) == 0 {
		delete(m.rooms, client.UserId)
		m.setOffline(ctx, client.UserId)
		return true
	}

	return false
}

// GetAll gets all clients in a user's room
func (m *RoomMap) GetAll(userId string) ([]*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[userId]
	if !exists {
		return nil, false
	}

	// Return a copy to avoid race conditions
	clients := make([]*Client, len(room.Clients))
	copy(clients, room.Clients)
	return clients, true
}

// HasConnection checks if user has any connection on this instance
func (m *RoomMap) HasConnection(userId string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[userId]
	return exists && len(room.Clients) > 0
}

// GetOnlineUserCount returns the number of users with a room here
func (m *RoomMap) GetOnlineUserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// GetOnlineConnCount returns the total number of connections here
func (m *RoomMap) GetOnlineConnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, room := range m.rooms {
		count += len(room.Clients)
	}
	return count
}

// IsOnline checks if user is online anywhere (redis covers other
// instances)
func (m *RoomMap) IsOnline(ctx context.Context, userId string) bool {
	if m.HasConnection(userId) {
		return true
	}

	if m.rdb != nil {
		key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
		exists, _ := m.rdb.Exists(ctx, key).Result()
		return exists > 0
	}

	return false
}

// setOnline marks user as online in redis
func (m *RoomMap) setOnline(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	m.rdb.Set(ctx, key, "1", OnlineTTL)
}

// setOffline marks user as offline in redis
func (m *RoomMap) setOffline(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	m.rdb.Del(ctx, key)
}

// RefreshOnlineStatus refreshes the presence key TTL
func (m *RoomMap) RefreshOnlineStatus(ctx context.Context, userId string) {
	if m.rdb == nil {
		return
	}

	if m.HasConnection(userId) {
		key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
		m.rdb.Expire(ctx, key, OnlineTTL)
	}
}

// GetAllOnlineUserIds returns all user ids with a room on this instance
func (m *RoomMap) GetAllOnlineUserIds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userIds := make([]string, 0, len(m.rooms))
	for userId := range m.rooms {
		userIds = append(userIds, userId)
	}
	return userIds
}
