package event

// Header keys carried on every published message.
const (
	HeaderCorrelationID = "cID"
	HeaderEventID       = "event_id"
)
