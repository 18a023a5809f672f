package models

import (
	"strings"
	"time"
)

// Credentials carries a login request. Transient: it is posted to the auth
// service and never persisted.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserProfile is the current-user view returned by the auth service's "me"
// endpoint. It is recomputed on each request and never diffed against a
// previous value.
type UserProfile struct {
	UserID     string   `json:"userId"`
	Email      string   `json:"email"`
	Role       string   `json:"role"`            // raw backend role string
	Roles      []string `json:"roles,omitempty"` // some backends send an array instead
	Department string   `json:"department,omitempty"`
	FullName   string   `json:"fullName,omitempty"`
	UserName   string   `json:"userName,omitempty"`
}

// RawRole returns the role string to feed the role mapper: the scalar role
// field when present, otherwise the first entry of the roles array.
func (p *UserProfile) RawRole() string {
	if p.Role != "" {
		return p.Role
	}
	if len(p.Roles) > 0 {
		return p.Roles[0]
	}
	return ""
}

// DisplayName returns the best available human-readable name.
func (p *UserProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.UserName != "" {
		return p.UserName
	}
	return p.Email
}

// Valid reports whether the profile identifies a user. A profile without a
// userId is treated as unauthenticated by the session guard.
func (p *UserProfile) Valid() bool {
	return p != nil && strings.TrimSpace(p.UserID) != ""
}

// RedirectTarget is assembled immediately before navigation and exists only
// for the duration of one redirect.
type RedirectTarget struct {
	URL       string    `json:"url"` // absolute desk URL, query parameters included
	Token     string    `json:"token,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	UserRole  Role      `json:"userRole"`
	UserEmail string    `json:"userEmail"`
}
