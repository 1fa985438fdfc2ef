package services

import "abstract-review-api/models"

// Actor identifies the caller of a workflow operation. Controllers build it
// from the authenticated request context; services never reach into ambient
// request state.
type Actor struct {
	UserID int
	RoleID int
	Email  string
}

// IsStaff reports whether the actor holds the staff/admin role.
func (a Actor) IsStaff() bool {
	return a.RoleID == models.RoleStaff
}

// IsAuthor reports whether the actor belongs to the external author class,
// which is subject to the registration-proof verification gate.
func (a Actor) IsAuthor() bool {
	return a.RoleID == models.RoleAuthor
}

// CanOwnAbstracts reports whether the actor's role may create submissions.
func (a Actor) CanOwnAbstracts() bool {
	return a.RoleID == models.RoleRegistrant || a.RoleID == models.RoleAuthor
}
