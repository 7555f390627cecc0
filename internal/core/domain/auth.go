package domain

import "time"

// AuthToken is an issued dashboard access token.
type AuthToken struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}
