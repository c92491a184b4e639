// Package access decides who may do what. A request is described by the
// acting identity, the kind of action and, for object checks, the owner of
// the object; every endpoint is guarded by one Policy value.
package access

import (
	"net/http"

	"github.com/yamdb/yamdb/database/model"
	"github.com/yamdb/yamdb/util/common"
)

type Role string

const (
	RoleUser      Role = model.RoleUser
	RoleModerator Role = model.RoleModerator
	RoleAdmin     Role = model.RoleAdmin
)

// ParseRole accepts only the known role names.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type Action int

const (
	Read Action = iota
	Write
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// ActionForMethod classifies an HTTP method; safe methods are reads.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	case http.MethodDelete:
		return Delete
	}
	return Write
}

// Actor is the authenticated identity behind a request. A nil *Actor is an
// anonymous caller.
type Actor struct {
	ID          int
	Username    string
	Role        Role
	IsSuperuser bool
}

// NewActor builds an Actor from a stored user.
func NewActor(u *model.User) *Actor {
	role, ok := ParseRole(u.Role)
	if !ok {
		role = RoleUser
	}
	return &Actor{ID: u.Id, Username: u.Username, Role: role, IsSuperuser: u.IsSuperuser}
}

func (a *Actor) IsAdmin() bool {
	return a != nil && (a.Role == RoleAdmin || a.IsSuperuser)
}

// IsStaff reports moderators and admins.
func (a *Actor) IsStaff() bool {
	return a.IsAdmin() || (a != nil && a.Role == RoleModerator)
}

type Policy int

const (
	// AdminOnly requires an admin for every action.
	AdminOnly Policy = iota
	// AdminOrReadOnly lets anyone read and only admins write or delete.
	AdminOrReadOnly
	// AuthorOrStaff lets anyone read, any authenticated user create, and
	// only the author, a moderator or an admin change an existing object.
	AuthorOrStaff
	// Authenticated requires any signed-in user.
	Authenticated
)

func (p Policy) String() string {
	switch p {
	case AdminOnly:
		return "admin-only"
	case AdminOrReadOnly:
		return "admin-or-read-only"
	case AuthorOrStaff:
		return "author-or-staff"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Check is the request level decision, made before any object is loaded.
func (p Policy) Check(actor *Actor, action Action) error {
	switch p {
	case AdminOnly:
		return requireAdmin(actor)
	case AdminOrReadOnly:
		if action == Read {
			return nil
		}
		return requireAdmin(actor)
	case AuthorOrStaff:
		if action == Read {
			return nil
		}
		return requireActor(actor)
	case Authenticated:
		return requireActor(actor)
	}
	return common.ErrPermissionDenied
}

// CheckObject is the object level decision for an existing object owned by
// ownerID. It includes the request level decision.
func (p Policy) CheckObject(actor *Actor, action Action, ownerID int) error {
	if err := p.Check(actor, action); err != nil {
		return err
	}
	if p != AuthorOrStaff || action == Read {
		return nil
	}
	if actor.ID == ownerID || actor.IsStaff() {
		return nil
	}
	return common.ErrPermissionDenied
}

func requireActor(actor *Actor) error {
	if actor == nil {
		return common.ErrNotAuthenticated
	}
	return nil
}

func requireAdmin(actor *Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return common.ErrPermissionDenied
	}
	return nil
}
