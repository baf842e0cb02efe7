package entity

// MaxContentLength bounds the text content of a message
const MaxContentLength = 2000

// Message represents a message in a conversation
type Message struct {
	Id             string `json:"id" gorm:"column:id;primaryKey"`
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;index:idx_conv_created,priority:1"`
	SenderId       string `json:"sender_id" gorm:"column:sender_id"`
	Content        string `json:"content" gorm:"column:content"`
	IsRead         bool   `json:"is_read" gorm:"column:is_read"`
	ReadAt         *int64 `json:"read_at" gorm:"column:read_at"`
	CreatedAt      int64  `json:"created_at" gorm:"column:created_at;index:idx_conv_created,priority:2"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageInfo represents a message for API responses
type MessageInfo struct {
	Id             string `json:"id"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	Content        string `json:"content"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      int64  `json:"created_at"`
}

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		Content:        m.Content,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}
