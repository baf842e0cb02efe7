package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam   = New(1001, "invalid parameter")
	ErrInternalServer = New(1002, "internal server error")
	ErrUnauthorized   = New(1003, "unauthorized")
	ErrForbidden      = New(1004, "forbidden")
	ErrNotFound       = New(1005, "not found")
	ErrNoPermission   = New(1006, "no permission to access this resource")

	// Auth errors (2xxx)
	ErrTokenInvalid  = New(2001, "token invalid")
	ErrTokenExpired  = New(2002, "token expired")
	ErrTokenMissing  = New(2003, "token missing")
	ErrUserNotFound  = New(2004, "user not found")
	ErrUserExists    = New(2005, "user already exists")
	ErrPasswordWrong = New(2006, "password wrong")

	// Conversation errors (3xxx)
	ErrConvNotFound     = New(3001, "conversation not found")
	ErrSelfConversation = New(3002, "cannot start a conversation with yourself")
	ErrNotParticipant   = New(3003, "not a participant of this conversation")
	ErrEmptyGroup       = New(3004, "group needs at least one other member")

	// Message errors (4xxx)
	ErrMessageNotFound = New(4001, "message not found")
	ErrContentEmpty    = New(4002, "message content empty")
	ErrContentTooLong  = New(4003, "message content too long")
	ErrSendFailed      = New(4004, "message send failed")

	// Notification errors (5xxx)
	ErrNotifNotFound    = New(5001, "notification not found")
	ErrNotifTypeInvalid = New(5002, "invalid notification type")
)
