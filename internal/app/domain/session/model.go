package session

import (
	"time"

	"github.com/R3E-Network/todo_service/internal/app/domain/user"
)

// Record is a persisted session. ID is the store key derived from the
// client-held token, never the token itself.
type Record struct {
	ID            string       `json:"id"`
	Authenticated bool         `json:"isAuth"`
	User          user.Summary `json:"user"`
	ExpiresAt     time.Time    `json:"expires"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
