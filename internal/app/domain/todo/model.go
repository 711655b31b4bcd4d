package todo

import "time"

// Todo is a task owned by exactly one user, referenced by username.
type Todo struct {
	ID        string    `json:"_id" db:"id"`
	Text      string    `json:"todo" db:"todo"`
	Username  string    `json:"username" db:"username"`
	Completed bool      `json:"status" db:"status"`
	CreatedAt time.Time `json:"date" db:"created_at"`
}

// OwnedBy reports whether username owns t.
func (t Todo) OwnedBy(username string) bool {
	return t.Username == username
}
