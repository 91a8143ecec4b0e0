package models

import "strings"

// User is an individual account returned by the backend's user typeahead.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// DisplayName returns the user's full name, falling back to the email address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Group is a named user group returned by the backend's group typeahead.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
