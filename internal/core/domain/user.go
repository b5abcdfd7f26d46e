package domain

import "time"

// Roles. Admins manage pricing configuration (commissions, markup rules,
// addon catalog); clients quote and check out shipments scoped to their own
// client_id.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	ClientID     string    `json:"client_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
