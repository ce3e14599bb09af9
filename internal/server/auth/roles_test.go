package auth

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/campushub/internal/common"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"STUDENT", "ADMIN"} {
		r, err := ParseRole(s)
		if err != nil {
			t.Fatalf("ParseRole(%q) error: %v", s, err)
		}
		if string(r) != s {
			t.Fatalf("ParseRole(%q) = %q", s, r)
		}
	}

	for _, s := range []string{"", "student", "ROOT"} {
		if _, err := ParseRole(s); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("ParseRole(%q) expected ErrValidation, got %v", s, err)
		}
	}
}

func TestRole_Can(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleStudent, PermCreatePost, true},
		{RoleStudent, PermCreateComment, true},
		{RoleStudent, PermLikeComment, true},
		{RoleStudent, PermCreateReport, true},
		{RoleStudent, PermDeleteAnyComment, false},
		{RoleStudent, PermReviewReports, false},
		{RoleAdmin, PermCreatePost, true},
		{RoleAdmin, PermDeleteAnyComment, true},
		{RoleAdmin, PermReviewReports, true},
		{Role("GUEST"), PermCreatePost, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			if got := tt.role.Can(tt.perm); got != tt.want {
				t.Fatalf("Can() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_PermissionsNotShared(t *testing.T) {
	admin := RoleAdmin.Permissions()
	admin[0] = Permission("mutated")

	if !RoleStudent.Can(PermCreatePost) || !RoleAdmin.Can(PermCreatePost) {
		t.Fatal("capability table must not be mutable through returned slices")
	}
}
