package models

import "time"

// ExchangeCode is a server-issued, short-lived, single-use code binding a
// bearer token and a profile snapshot. The portal hands the code to the
// browser instead of the token itself; the destination desk redeems it once
// at landing.
type ExchangeCode struct {
	Code      string    `json:"code" db:"code"`
	Token     string    `json:"-" db:"token"` // never serialized outward
	Profile   UserProfile `json:"profile" db:"profile"`
	Role      Role      `json:"role" db:"role"`
	IssuedAt  time.Time `json:"issuedAt" db:"issued_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
}

// Expired reports whether the code is past its TTL at the given instant.
func (c *ExchangeCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// TableName returns the table name for the ExchangeCode model.
func (ExchangeCode) TableName() string {
	return "exchange_codes"
}
