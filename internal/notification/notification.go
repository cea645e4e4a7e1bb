package notification

import "time"

type Type string

const (
	TypeLike    Type = "like"
	TypeComment Type = "comment"
)

// Notification is both the persisted record and the payload pushed to a connected client.
type Notification struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message renders the human readable text shown to the recipient.
func Message(notificationType Type, actorName string) string {
	if actorName == "" {
		actorName = "Someone"
	}

	switch notificationType {
	case TypeLike:
		return actorName + " liked your post"
	case TypeComment:
		return actorName + " commented on your post"
	default:
		return actorName + " interacted with your post"
	}
}
