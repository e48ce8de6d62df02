package entities

import "strings"

// SystemUser is a reviewer on the roster. DecisiveAuthority is derived from
// the roster's decisive email list, never stored per user.
type SystemUser struct {
	ID                string
	Email             string
	Nickname          string
	Tier              int
	DecisiveAuthority bool
}

type Roster struct {
	Reviewers      []SystemUser
	DecisiveEmails []string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
