package entity

// Socket event names. These, together with the payload shapes below, are
// the stable contract with connected clients.
const (
	EventNewMessage   = "new-message"
	EventMessageSent  = "message-sent"
	EventNotification = "notification"
	EventUnreadCount  = "unread-count"
)

// NewMessagePayload is pushed to every other participant of a
// conversation when a message is sent.
type NewMessagePayload struct {
	Id             string `json:"id"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`
}

// MessageSentPayload is a lightweight acknowledgment pushed to the
// sender's own room so that other devices of the sender stay in sync.
type MessageSentPayload struct {
	Id             string `json:"id"`
	ConversationId string `json:"conversation_id"`
	CreatedAt      int64  `json:"created_at"`
}

// NotificationPayload is pushed to the recipient's room when a
// notification is created.
type NotificationPayload struct {
	Id         string `json:"id"`
	Type       string `json:"type"`
	ActorId    string `json:"actor_id"`
	TargetType string `json:"target_type,omitempty"`
	TargetId   string `json:"target_id,omitempty"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  int64  `json:"created_at"`
}

// UnreadCountPayload carries a full unread-count snapshot. It is
// recomputed from storage rather than incremented in place so it stays
// correct under concurrent notification creation.
type UnreadCountPayload struct {
	UnreadCount int64 `json:"unread_count"`
}
