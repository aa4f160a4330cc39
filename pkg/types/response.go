package types

// SuccessEnvelope is the body of every 2xx response.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorEnvelope is the body of every error response. Code and Details are
// machine-readable; Message is safe to show to the caller.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ListPayload wraps list endpoints with the count returned.
type ListPayload[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
	Limit int `json:"limit"`
}

func NewListPayload[T any](items []T, limit int) ListPayload[T] {
	if items == nil {
		items = []T{}
	}
	return ListPayload[T]{Items: items, Count: len(items), Limit: limit}
}
