package identity

import "time"

// Roles.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// User represents a registered platform account.
type User struct {
	ID           string
	Phone        string
	Email        string
	Name         string
	Role         string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Credentials request structure.
type Credentials struct {
	Phone    string
	Email    string
	Name     string
	Password string
	Role     string
}
