package otpflow

import (
	"context"
	"fmt"
	"net/http"
)

// GenerateRequest asks the server to issue and email a code.
type GenerateRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Client is the server side of the flow.
//
// Implementations return *ServerError when the server answered with an error
// status and any other error for transport failures.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) error
	Verify(ctx context.Context, email, code string) error
}

// ServerError is an error answer from the server. Its message is shown to
// the user next to the code input.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("otpflow: server returned %d: %s", e.Status, e.Message)
}

// IsRateLimited reports whether the server refused a generate because of its cooldown.
func (e *ServerError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// Notifier shows transient messages, such as transport failures, outside the form.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }
