package domain

import "time"

// User represents a person tracking their prayer habits
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailOrEmpty returns the email address, or "" when none was given
func (u User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// CreateUserRequest represents a request to register a new user
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50,personname"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
