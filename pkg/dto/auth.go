package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string    `json:"refresh_token"`
	TeamID       uuid.UUID `json:"team_id,omitempty"`
}

// AuthResponse is returned by register and login. CurrentTeam is set when a
// team was selected automatically.
type AuthResponse struct {
	Message               string        `json:"message"`
	User                  UserResponse  `json:"user"`
	Tokens                TokenResponse `json:"tokens"`
	CurrentTeam           *TeamResponse `json:"current_team,omitempty"`
	TeamSelectionRequired bool          `json:"team_selection_required"`
}
