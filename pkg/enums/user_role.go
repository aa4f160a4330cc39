package enums

// UserRole is the account-level role carried in access tokens.
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleFarmer UserRole = "farmer"
	UserRoleAdmin  UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleUser,
	UserRoleFarmer,
	UserRoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	return contains(validUserRoles, r)
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}
