package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------
// Database & API models
// ---------------------------------------------

// Message is immutable once stored. A conversation is not stored; it is the
// set of messages between an unordered pair of users.
type Message struct {
	ID         uuid.UUID `json:"_id"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SendRequest is the body of POST /messages/send/{userId}. Image is base64
// or a data URL.
type SendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// ---------------------------------------------
// Realtime models
// ---------------------------------------------

const (
	EventNewMessage  = "newMessage"
	EventOnlineUsers = "getOnlineUsers"
)

// Event is the frame pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// EnvelopeSuperseded tells other instances that TargetID reconnected on the
// connection named by Owner.
const EnvelopeSuperseded = "superseded"

// Envelope carries an encoded event between instances through the relay.
// A nil TargetID addresses every local connection. A non-empty Owner limits
// delivery to that connection.
type Envelope struct {
	Kind     string          `json:"kind,omitempty"`
	TargetID uuid.UUID       `json:"target_id"`
	Owner    string          `json:"owner,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
