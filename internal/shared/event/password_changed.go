package event

const PasswordChangedDestination string = "identity_password_changed"
const PasswordChangedConsumerNotification string = "identity_password_changed_notification"

// PasswordChangedMessage is published after an authenticated password update.
type PasswordChangedMessage struct {
	EventID    int64  `json:"event_id,string"`
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	OccurredAt int64  `json:"occurred_at"`
}
