package enums

import "fmt"

// MemberRole represents an operator-level permissions role.
type MemberRole string

const (
	MemberRoleOwner      MemberRole = "owner"
	MemberRoleAdmin      MemberRole = "admin"
	MemberRoleManager    MemberRole = "manager"
	MemberRoleInstructor MemberRole = "instructor"
	MemberRoleStudent    MemberRole = "student"
	MemberRoleOutsider   MemberRole = "outsider"
)

var validMemberRoles = []MemberRole{
	MemberRoleOwner,
	MemberRoleAdmin,
	MemberRoleManager,
	MemberRoleInstructor,
	MemberRoleStudent,
	MemberRoleOutsider,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberRole.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// CanDelete reports whether the role may destroy financial records.
func (m MemberRole) CanDelete() bool {
	switch m {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleManager:
		return true
	default:
		return false
	}
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
