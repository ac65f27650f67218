package model

import "time"

// User is a record of the users collection as stored by the document store.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionUser is the part of a User that is kept in the local session.
// The password is never part of it.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) SessionUser() SessionUser {
	return SessionUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
