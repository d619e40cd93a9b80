package models

import "time"

// AuthToken is replaced as a whole on every (re)authentication.
type AuthToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at now, keeping skew in reserve.
func (t *AuthToken) Valid(now time.Time, skew time.Duration) bool {
	if t == nil || t.Value == "" {
		return false
	}
	return now.Add(skew).Before(t.ExpiresAt)
}
