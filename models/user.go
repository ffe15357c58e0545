package models

import "github.com/google/uuid"

// UserStatus marks whether a member is currently active.
type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

// userNamespace seeds name-derived ids for records that arrive without one.
var userNamespace = uuid.MustParse("6f1f3c52-8a7e-4d0b-9a1e-3c2b5d7e9f10")

// User is a library member. ID is stable; Name is a display attribute.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Contact       string     `json:"contact"`
	BooksCount    int        `json:"booksCount"`
	TotalBorrowed int        `json:"totalBorrowed"`
	JoinDate      string     `json:"joinDate,omitempty"`
	Status        UserStatus `json:"status"`
}

// UserDraft carries the fields accepted when registering a member.
type UserDraft struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// User materializes the draft with a fresh random id.
func (d UserDraft) User() User {
	return User{
		ID:      uuid.NewString(),
		Name:    d.Name,
		Contact: d.Contact,
		Status:  UserActive,
	}
}

// DerivedUserID returns the deterministic id used for a member known only by name.
func DerivedUserID(name string) string {
	return uuid.NewSHA1(userNamespace, []byte(name)).String()
}
