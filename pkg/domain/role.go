package domain

import dErrors "idverify/pkg/domain-errors"

// Role is the account role carried in access tokens. It decides which
// verification surfaces a caller may reach.
type Role string

const (
	RoleStudent Role = "student"
	RoleSponsor Role = "sponsor"
	RoleSchool  Role = "school"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleStudent: true,
	RoleSponsor: true,
	RoleSchool:  true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from token claims or other external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
