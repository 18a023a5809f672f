// Package tokenstore consolidates the historically scattered reads and
// writes of bearer tokens and user profiles into one injectable interface.
// Callers get and clear auth state through a Store instead of touching
// cookies or ad-hoc key names directly.
package tokenstore

import (
	"encoding/json"
	"strings"
)

// Known key and cookie names accumulated by the historical desk modules.
// New writes go to CanonicalKey only; reads still scan all of them so
// tokens written by older desks are found.
const (
	CanonicalKey = "auth_token"

	userDataKey = "user_data"
)

// LegacyKeys are every storage key a token was ever written under.
var LegacyKeys = []string{"token", "jwtToken", "auth_token", "authToken", "accessToken"}

// CookieNames are every cookie name a token was ever written under.
var CookieNames = []string{"auth_token", "JSESSIONID"}

// Store persists and retrieves the bearer token and minimal user JSON.
// The absence of a token is a valid, non-error outcome meaning
// "unauthenticated"; implementations return "" rather than an error for it.
type Store interface {
	// Get returns the current token, or "" when no usable token exists.
	Get() string
	// Set persists the token under the canonical key.
	Set(token string) error
	// Clear removes the token from every known location. Idempotent.
	Clear() error
}

// usable filters out the sentinel junk values the historical front-ends
// persisted: empty strings and the literal strings "null" and "undefined".
func usable(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "null", "undefined":
		return false
	}
	return true
}

// tokenFromUserData extracts a token from a persisted user_data JSON blob,
// checking the token and accessToken fields in that order.
func tokenFromUserData(raw string) string {
	if raw == "" {
		return ""
	}
	var blob struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return ""
	}
	if usable(blob.Token) {
		return blob.Token
	}
	if usable(blob.AccessToken) {
		return blob.AccessToken
	}
	return ""
}
