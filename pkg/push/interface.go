package push

import "context"

// PushProvider is the external push gateway contract. SendMulticast reports
// per-token outcomes so callers can deactivate dead registrations; it only
// returns an error when the gateway itself was unreachable.
type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendMulticast(ctx context.Context, request *MulticastRequest) (*MulticastResult, error)
}

type NotificationRequest struct {
	Token     string            `json:"token"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	ImageURL  string            `json:"image_url,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	Category  string            `json:"category,omitempty"`
	Priority  string            `json:"priority,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

type MulticastRequest struct {
	Tokens    []string          `json:"tokens"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	ImageURL  string            `json:"image_url,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	Category  string            `json:"category,omitempty"`
	Priority  string            `json:"priority,omitempty"`
}

// TokenResult is the per-token delivery report of a multicast call.
// Unregistered marks tokens the gateway rejected as invalid or no longer
// registered; other failures may be transient and the token stays usable.
type TokenResult struct {
	Token        string `json:"token"`
	Success      bool   `json:"success"`
	MessageID    string `json:"message_id,omitempty"`
	Error        string `json:"error,omitempty"`
	Unregistered bool   `json:"unregistered,omitempty"`
}

type MulticastResult struct {
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	Results      []TokenResult `json:"results"`
}
