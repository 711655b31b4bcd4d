package user

import "time"

// User is a registered identity. Email and Username are unique; Password
// holds the bcrypt digest, never the plaintext.
type User struct {
	ID        string    `json:"_id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"password" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Summary is the slice of a user embedded in an authenticated session.
type Summary struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Summary returns the session summary for u.
func (u User) Summary() Summary {
	return Summary{UserID: u.ID, Email: u.Email, Username: u.Username}
}
