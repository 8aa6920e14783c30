// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,min=3,max=255" example:"jdoe or jdoe@example.com"`
	Password   string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// AdminLoginRequest adds captcha verification on top of the plain login
type AdminLoginRequest struct {
	LoginRequest
	CaptchaID    string  `json:"captcha_id" validate:"required" example:"c9b1f3a0"`
	CaptchaAngle float64 `json:"captcha_angle" validate:"required" example:"137"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	AccessToken  string      `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string      `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string      `json:"token_type" example:"Bearer"`
	ExpiresIn    int         `json:"expires_in" example:"3600"`
	ExpiresAt    time.Time   `json:"expires_at" example:"2026-01-15T16:30:00Z"`
	User         AuthUserDTO `json:"user"`
}

// AuthUserDTO represents user information returned in login responses
type AuthUserDTO struct {
	ID        uint   `json:"id" example:"5"`
	UUID      string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username  string `json:"username" example:"jdoe"`
	Email     string `json:"email" example:"jdoe@example.com"`
	FirstName string `json:"first_name" example:"Jordan"`
	LastName  string `json:"last_name" example:"Doe"`
	Role      string `json:"role" example:"operator"`
	IsActive  bool   `json:"is_active" example:"true"`
	CreatedAt string `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// CaptchaResponse carries a generated captcha challenge
type CaptchaResponse struct {
	CaptchaID  string `json:"captcha_id" example:"c9b1f3a0"`
	MasterB64  string `json:"master_image" example:"data:image/png;base64,..."`
	ThumbB64   string `json:"thumb_image" example:"data:image/png;base64,..."`
	MasterSize int    `json:"master_size" example:"300"`
	ThumbSize  int    `json:"thumb_size" example:"150"`
}

// Common error codes for login operations
const (
	ErrorUserNotFound      = "USER_NOT_FOUND"
	ErrorIncorrectPassword = "INCORRECT_PASSWORD"
	ErrorAccountInactive   = "ACCOUNT_INACTIVE"
	ErrorInvalidCaptcha    = "INVALID_CAPTCHA"
)
