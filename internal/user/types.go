package user

import "time"

// Roles recognised by the core.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an operator or household member known to the core.
//
// Users with the admin role and a phone number on record receive
// security alert notifications.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
