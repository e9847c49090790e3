package auth

import "fmt"

// Role is the account designation that gates which endpoints are reachable.
// The set is closed: RoleDoctor and RolePatient are the only valid values.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Roles lists every valid role.
var Roles = []Role{RoleDoctor, RolePatient}

// ParseRole converts s into a Role, failing for anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Title returns the capitalized display name used in access-denied messages.
func (r Role) Title() string {
	switch r {
	case RoleDoctor:
		return "Doctor"
	case RolePatient:
		return "Patient"
	}
	return string(r)
}

func (r Role) String() string { return string(r) }
