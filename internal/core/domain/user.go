package domain

import "time"

// User is a registered visitor of the site.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the identity attached to a request: either Anonymous or
// Authenticated with a rehydrated User.
type Identity struct {
	user *User
}

// Anonymous returns the identity of a visitor without a bound session.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a visitor bound to u.
func Authenticated(u User) Identity {
	return Identity{user: &u}
}

// IsAuthenticated reports whether the identity carries a user.
func (i Identity) IsAuthenticated() bool {
	return i.user != nil
}

// User returns the authenticated user. ok is false for Anonymous.
func (i Identity) User() (u User, ok bool) {
	if i.user == nil {
		return User{}, false
	}
	return *i.user, true
}
