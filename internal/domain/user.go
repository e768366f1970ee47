package domain

import (
	"time"

	"github.com/google/uuid"
)

const RoleAdmin = "admin"

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedDate  time.Time `json:"created_date" db:"created_date"`
}

// Principal is the authenticated actor behind a request. The transport layer
// resolves it; services never touch credentials.
type Principal struct {
	Username string
	IsAdmin  bool
}

func (u *User) Principal() Principal {
	return Principal{Username: u.Username, IsAdmin: u.Role == RoleAdmin}
}
