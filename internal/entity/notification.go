package entity

// Notification types
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMention = "mention"
	NotificationReply   = "reply"
	NotificationTagged  = "tagged"
	NotificationShare   = "share"
)

var notificationTypes = map[string]struct{}{
	NotificationLike:    {},
	NotificationComment: {},
	NotificationFollow:  {},
	NotificationMention: {},
	NotificationReply:   {},
	NotificationTagged:  {},
	NotificationShare:   {},
}

// ValidNotificationType reports whether t is a known notification type
func ValidNotificationType(t string) bool {
	_, ok := notificationTypes[t]
	return ok
}

// Notification represents a side-channel alert for a social action
type Notification struct {
	Id          string `json:"id" gorm:"column:id;primaryKey"`
	RecipientId string `json:"recipient_id" gorm:"column:recipient_id;index:idx_recipient_read,priority:1"`
	ActorId     string `json:"actor_id" gorm:"column:actor_id"`
	Type        string `json:"type" gorm:"column:type"`
	TargetType  string `json:"target_type,omitempty" gorm:"column:target_type"`
	TargetId    string `json:"target_id,omitempty" gorm:"column:target_id"`
	IsRead      bool   `json:"is_read" gorm:"column:is_read;index:idx_recipient_read,priority:2"`
	CreatedAt   int64  `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}
