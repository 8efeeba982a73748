package domain

import "time"

// AdminSession is an authenticated admin's session
type AdminSession struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLoginRequest represents an admin login attempt.
// UserID is optional; without it the first admin user is used.
type AdminLoginRequest struct {
	UserID   string `json:"user_id,omitempty"`
	Password string `json:"password" validate:"required"`
}
