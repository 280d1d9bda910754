package model

import "time"

// User is an account of any role.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for self-registration. Admin accounts are
// created out of band with cmd/create-admin.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     Role   `json:"role" binding:"required,oneof=student teacher"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateRoleRequest is the payload for an admin changing a user's role.
type UpdateRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=student teacher admin"`
}
