package domain

import "time"

// Role names recognized by the dashboard.
const (
	RoleUser    = "user"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt encoded
	Role         string
	IsActive     bool
	Email        *string
	FullName     *string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// UserView is the sanitized shape returned to callers. It never carries the
// password hash.
type UserView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	Email       *string    `json:"email,omitempty"`
	FullName    *string    `json:"full_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// View returns the sanitized representation of u.
func (u User) View() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsActive:    u.IsActive,
		Email:       u.Email,
		FullName:    u.FullName,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
