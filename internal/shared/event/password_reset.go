package event

const PasswordResetDestination string = "identity_password_reset"
const PasswordResetConsumerNotification string = "identity_password_reset_notification"

// PasswordResetMessage is published after a password is reset through an OTP session.
type PasswordResetMessage struct {
	EventID    int64  `json:"event_id,string"`
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	OccurredAt int64  `json:"occurred_at"`
}
