package identity

import (
	"errors"
	"fmt"
)

// Role is the closed set of account kinds. The zero value is not a valid role.
type Role struct {
	name string
}

var (
	RoleClient    = Role{name: "client"}
	RoleTherapist = Role{name: "therapist"}
)

var ErrUnknownRole = errors.New("unknown role")

const (
	HomeClient    = "/dashboard/client"
	HomeTherapist = "/dashboard/therapist"
)

func ParseRole(s string) (Role, error) {
	switch s {
	case RoleClient.name:
		return RoleClient, nil
	case RoleTherapist.name:
		return RoleTherapist, nil
	default:
		return Role{}, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string { return r.name }

func (r Role) IsZero() bool { return r.name == "" }

func (r Role) IsClient() bool { return r == RoleClient }

func (r Role) IsTherapist() bool { return r == RoleTherapist }

// Home returns the dashboard path owned by the role.
func (r Role) Home() (string, error) {
	switch r {
	case RoleClient:
		return HomeClient, nil
	case RoleTherapist:
		return HomeTherapist, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, r.name)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, ErrUnknownRole
	}
	return []byte(r.name), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
