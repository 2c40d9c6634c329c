package event

type Type string

const (
	TypeSessionCreated  Type = "session.created"
	TypeSessionRotated  Type = "session.rotated"
	TypeSessionRevoked  Type = "session.revoked"
	TypeSessionEvicted  Type = "session.evicted"
	TypeLoginFailed     Type = "login.failed"
	TypePasswordChanged Type = "password.changed"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
