package entity

import (
	"fmt"
	"sort"
)

// Conversation types
const (
	ConversationDirect int32 = 1
	ConversationGroup  int32 = 2
)

// Member slots for direct conversations. The participant with the
// lexicographically smaller id always occupies slot 1, which makes the
// slot assignment deterministic for a given pair.
const (
	SlotGroup  int32 = 0
	SlotFirst  int32 = 1
	SlotSecond int32 = 2
)

// Conversation represents a direct or group conversation.
// The type tag is authoritative: any logic that branches on it must
// switch exhaustively and treat unknown values as an error.
type Conversation struct {
	Id            string  `json:"id" gorm:"column:id;primaryKey"`
	Type          int32   `json:"type" gorm:"column:type"`
	PairKey       *string `json:"-" gorm:"column:pair_key;uniqueIndex:idx_pair_key"`
	Name          string  `json:"name,omitempty" gorm:"column:name"`
	CreatorId     string  `json:"creator_id,omitempty" gorm:"column:creator_id"`
	LastMessageAt *int64  `json:"last_message_at" gorm:"column:last_message_at"`
	CreatedAt     int64   `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt     int64   `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// IsDirect reports whether the conversation is a direct conversation
func (c *Conversation) IsDirect() bool {
	return c.Type == ConversationDirect
}

// ConversationMember is one participant of a conversation together with
// their unread counter. Direct conversations have exactly two member rows
// (slot 1 and slot 2); group conversations have one row per member with
// slot 0. The unique (conversation_id, user_id) index keeps membership
// and counters consistent regardless of type.
type ConversationMember struct {
	Id             int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;uniqueIndex:idx_conv_user"`
	UserId         string `json:"user_id" gorm:"column:user_id;uniqueIndex:idx_conv_user"`
	Slot           int32  `json:"slot" gorm:"column:slot"`
	UnreadCount    int64  `json:"unread_count" gorm:"column:unread_count"`
	CreatedAt      int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt      int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
}

// TableName returns the table name for ConversationMember
func (ConversationMember) TableName() string {
	return "conversation_members"
}

// DirectPairKey returns the canonical key for an unordered pair of user
// ids. Format: {min(userA,userB)}:{max(userA,userB)}. Uses ":" as
// separator so that user ids containing other characters stay unambiguous.
// The unique index on this key is what guarantees a single conversation
// per pair, even under concurrent creation.
func DirectPairKey(userA, userB string) string {
	users := []string{userA, userB}
	sort.Strings(users)
	return fmt.Sprintf("%s:%s", users[0], users[1])
}

// DirectSlots returns the member slots for an unordered pair: the
// lexicographically smaller id gets slot 1.
func DirectSlots(userA, userB string) map[string]int32 {
	users := []string{userA, userB}
	sort.Strings(users)
	return map[string]int32{
		users[0]: SlotFirst,
		users[1]: SlotSecond,
	}
}

// OtherMemberIds resolves the participants of a conversation other than
// userId. Exhaustive over the type tag: unknown types return an error
// rather than an empty result.
func OtherMemberIds(convType int32, members []*ConversationMember, userId string) ([]string, error) {
	switch convType {
	case ConversationDirect, ConversationGroup:
		others := make([]string, 0, len(members))
		for _, m := range members {
			if m.UserId != userId {
				others = append(others, m.UserId)
			}
		}
		return others, nil
	default:
		return nil, fmt.Errorf("unknown conversation type %d", convType)
	}
}

// ConversationInfo represents a conversation for API responses, enriched
// with the other participants' public profiles, the latest message and
// the viewer's unread count.
type ConversationInfo struct {
	Id            string       `json:"id"`
	Type          int32        `json:"type"`
	Name          string       `json:"name,omitempty"`
	CreatorId     string       `json:"creator_id,omitempty"`
	Members       []*UserInfo  `json:"members"`
	LastMessage   *MessageInfo `json:"last_message,omitempty"`
	UnreadCount   int64        `json:"unread_count"`
	LastMessageAt *int64       `json:"last_message_at"`
	UpdatedAt     int64        `json:"updated_at"`
}

// ConversationWithUnread is the repository projection of a conversation
// joined with the viewer's member row.
type ConversationWithUnread struct {
	Conversation
	UnreadCount int64 `json:"unread_count"`
}
