package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/loan-origination/internal/domain/valueobject"
)

// Actor is a staff member who takes workflow decisions. Applications refer to
// actors by ID and never own them.
type Actor struct {
	id        string
	email     string
	fullName  string
	role      valueobject.Role
	active    bool
	createdAt time.Time
}

// NewActor registers an active actor. Emails are stored lower-cased.
func NewActor(email, fullName string, role valueobject.Role, now time.Time) (Actor, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Actor{}, valueobject.InvalidInput("invalid actor email %q", email)
	}
	if role.IsZero() {
		return Actor{}, valueobject.InvalidInput("actor role is required")
	}
	return Actor{
		id:        uuid.New().String(),
		email:     strings.ToLower(addr.Address),
		fullName:  strings.TrimSpace(fullName),
		role:      role,
		active:    true,
		createdAt: now,
	}, nil
}

// ReconstructActor rebuilds an actor from storage.
func ReconstructActor(id, email, fullName string, role valueobject.Role, active bool, createdAt time.Time) Actor {
	return Actor{id: id, email: email, fullName: fullName, role: role, active: active, createdAt: createdAt}
}

func (a Actor) ID() string             { return a.id }
func (a Actor) Email() string          { return a.email }
func (a Actor) FullName() string       { return a.fullName }
func (a Actor) Role() valueobject.Role { return a.role }
func (a Actor) Active() bool           { return a.active }
func (a Actor) CreatedAt() time.Time   { return a.createdAt }

// HasRole is false for deactivated actors regardless of role.
func (a Actor) HasRole(role valueobject.Role) bool {
	return a.active && a.role.Equal(role)
}
