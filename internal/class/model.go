package class

import (
	"time"

	"courseconnect/internal/user"

	"github.com/google/uuid"
)

// Class is a stored class row. Membership lives in its own set and is
// resolved separately.
type Class struct {
	ID          uuid.UUID
	Name        string
	Code        string
	Description string
	Instructor  string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
}

// Details is a class with its creator and members resolved to display fields.
type Details struct {
	ID          uuid.UUID      `json:"_id"`
	Name        string         `json:"name"`
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Instructor  string         `json:"instructor"`
	CreatedBy   user.Summary   `json:"createdBy"`
	Students    []user.Summary `json:"students"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type CreateRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

type JoinRequest struct {
	Code string `json:"code"`
}
