package entity

import (
	"strconv"
	"time"
)

// NoticeKind is the account event a notice email confirms.
type NoticeKind string

const (
	NoticeKindPasswordReset   NoticeKind = "password_reset"
	NoticeKindPasswordChanged NoticeKind = "password_changed"
)

func (k NoticeKind) String() string {
	return string(k)
}

// Notice is a security notice sent to a user after their password changed.
type Notice struct {
	EventID    int64
	UserID     int64
	Email      string
	Username   string
	Kind       NoticeKind
	OccurredAt time.Time
}

// IdempotencyKey identifies the notice across redeliveries of its event.
func (n Notice) IdempotencyKey() string {
	return "notification:" + n.Kind.String() + ":" + strconv.FormatInt(n.EventID, 10)
}
