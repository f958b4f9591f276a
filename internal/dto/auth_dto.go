package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	ImageFile    string    `json:"image_file"`
	Points       int       `json:"points"`
	Rating       int       `json:"rating"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	TotalBattles int       `json:"total_battles"`
	IsGoogleUser bool      `json:"is_google_user"`
}

// LeaderboardEntry is the public top-list row. It deliberately carries no
// email or ID, the leaderboard endpoint is unauthenticated.
type LeaderboardEntry struct {
	Username     string `json:"username"`
	ImageFile    string `json:"image_file"`
	AvatarLetter string `json:"avatar_letter"`
	Points       int    `json:"points"`
	Rating       int    `json:"rating"`
	Wins         int    `json:"wins"`
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
