package domain

import "time"

// User is referenced by suggestions; authentication itself lives outside
// this service.
type User struct {
	ID              int64
	Name            string
	Email           string
	IsAdmin         bool
	IsActive        bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
}
