package entity

import "time"

// Role is the account role a user logs in as.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string // bcrypt hash
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
