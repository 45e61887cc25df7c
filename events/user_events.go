package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserCreatedEvent is emitted when a new user registers.
type UserCreatedEvent struct {
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCreatedV1 is the typed event definition for user creation.
// Subject: events.user.v1.user-created
var UserCreatedV1 = helper.EventDefinition[UserCreatedEvent](
	"user", "UserCreated", "v1",
)
