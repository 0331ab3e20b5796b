package authapi

import (
	"time"

	"opsboard/cmd/identity"
)

type registerRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// userPayload is the wire shape of an account. The password hash never
// leaves the server.
type userPayload struct {
	ID           int64     `json:"id"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	Email        string    `json:"email"`
	RoleID       *int64    `json:"role_id"`
	PositionID   *int64    `json:"position_id"`
	Status       string    `json:"status"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserPayload(u identity.User) userPayload {
	return userPayload{
		ID:           u.ID,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		Email:        u.Email,
		RoleID:       u.RoleID,
		PositionID:   u.PositionID,
		Status:       u.Status,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
	}
}

type registerResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type loginResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         userPayload `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}
