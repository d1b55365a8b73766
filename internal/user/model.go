package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         uuid.UUID `json:"_id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary is the display projection of a user embedded in classes and rosters.
type Summary struct {
	ID         uuid.UUID `json:"_id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, FullName: u.FullName, Email: u.Email, ProfilePic: u.ProfilePic}
}

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

// AuthResponse is returned by signup and login. The token is also set as the
// session cookie; clients that cannot use cookies (websocket, load test) read it here.
type AuthResponse struct {
	User
	AccessToken string `json:"access_token"`
}
