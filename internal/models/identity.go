package models

import "github.com/google/uuid"

// Identity is the authenticated caller, passed explicitly to every service call.
type Identity struct {
	ID       uuid.UUID
	Username string
	Role     string
}

func (i Identity) Ref() UserRef {
	return UserRef{ID: i.ID, Username: i.Username}
}
