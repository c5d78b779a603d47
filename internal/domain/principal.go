package domain

import (
	"slices"
	"time"
)

// Role distinguishes the kinds of accounts on the platform.
type Role int

const (
	RoleUnknown Role = iota
	RoleMember
	RoleMentor
	RoleEmployer
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleMentor:
		return "mentor"
	case RoleEmployer:
		return "employer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole maps a role claim back to a Role. Unrecognized values are RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "member":
		return RoleMember
	case "mentor":
		return RoleMentor
	case "employer":
		return RoleEmployer
	case "admin":
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// Principal represents an authenticated account.
type Principal struct {
	ID   string
	Role Role
}

// CanPost reports whether the principal may create listings.
func (p Principal) CanPost() bool {
	return slices.Contains([]Role{RoleEmployer, RoleAdmin}, p.Role)
}

// TokenPair is the credential payload returned by the auth endpoints.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Job is a job-board posting.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Employer    string    `json:"employer"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
