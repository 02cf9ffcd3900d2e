package model

import "time"

// User represents an application user record as stored in the
// `users` table. The username is the primary key and never changes
// after registration. The json tags are omitted here because these
// structs are used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  Username     – unique identifier of the user, immutable.
//  PasswordHash – bcrypt hashed password; never leaves the repository layer.
//  FirstName    – given name.
//  LastName     – family name.
//  Phone        – contact phone number.
//  JoinAt       – set once at registration.
//  LastLoginAt  – updated on every successful login.
type User struct {
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Phone        string    // users.phone
	JoinAt       time.Time // users.join_at
	LastLoginAt  time.Time // users.last_login_at
}

// Profile is the subset of User safe to expose to other users. It is
// what listings and message detail embed for each party.
type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Profile returns the public view of the user.
func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
