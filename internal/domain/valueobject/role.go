package valueobject

import "strings"

// Role is the workflow permission of an actor.
type Role struct {
	value string
}

const (
	roleSales       = "SALES"
	roleUnderwriter = "UNDERWRITER"
	roleManagerL1   = "MANAGER_L1"
	roleManagerL2   = "MANAGER_L2"
	roleAdmin       = "ADMIN"
)

var (
	RoleSales       = Role{value: roleSales}
	RoleUnderwriter = Role{value: roleUnderwriter}
	RoleManagerL1   = Role{value: roleManagerL1}
	RoleManagerL2   = Role{value: roleManagerL2}
	RoleAdmin       = Role{value: roleAdmin}
)

var validRoles = map[string]Role{
	roleSales:       RoleSales,
	roleUnderwriter: RoleUnderwriter,
	roleManagerL1:   RoleManagerL1,
	roleManagerL2:   RoleManagerL2,
	roleAdmin:       RoleAdmin,
}

func NewRole(s string) (Role, error) {
	return parseEnum(validRoles, "role", strings.ToUpper(strings.TrimSpace(s)))
}

func (r Role) String() string               { return r.value }
func (r Role) IsZero() bool                 { return r.value == "" }
func (r Role) Equal(other Role) bool        { return r.value == other.value }
func (r Role) MarshalText() ([]byte, error) { return []byte(r.value), nil }
