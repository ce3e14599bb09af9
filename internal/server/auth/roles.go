package auth

import (
	"fmt"

	"github.com/dmitrijs2005/campushub/internal/common"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// Permission is a single capability checked by handlers.
type Permission string

const (
	PermCreatePost       Permission = "post:create"
	PermCreateComment    Permission = "comment:create"
	PermLikeComment      Permission = "comment:like"
	PermCreateReport     Permission = "report:create"
	PermDeleteAnyComment Permission = "comment:delete-any"
	PermReviewReports    Permission = "report:review"
)

// ParseRole maps a stored role string onto Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, s)
	}
}

// Permissions returns the capability table row for r. Unknown roles get none.
func (r Role) Permissions() []Permission {
	student := []Permission{PermCreatePost, PermCreateComment, PermLikeComment, PermCreateReport}

	switch r {
	case RoleStudent:
		return student
	case RoleAdmin:
		return append(student, PermDeleteAnyComment, PermReviewReports)
	default:
		return nil
	}
}

// Can reports whether r grants p.
func (r Role) Can(p Permission) bool {
	for _, granted := range r.Permissions() {
		if granted == p {
			return true
		}
	}
	return false
}
