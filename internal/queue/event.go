// Package queue defines the domain events exchanged over RabbitMQ and the
// publisher/consumer pair that carries them.
package queue

// Event types.
const (
	UserRegistered = "user.registered"
	OrderCreated   = "order.created"
	OrderUpdated   = "order.updated"
	OrderDeleted   = "order.deleted"
)

// Event is published after a successful write.  It carries enough context
// for downstream consumers to log or notify without querying the database.
// Fields holds the whitelisted values written by the request and is never
// populated for users.
type Event struct {
	Type       string         `json:"type"`
	Resource   string         `json:"resource"`
	ID         int64          `json:"id,omitempty"`
	Email      string         `json:"email,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}
