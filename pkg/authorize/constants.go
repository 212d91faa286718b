package authorize

import (
	"fmt"
	"regexp"
	"strings"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionManage Action = "manage"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {}, ActionManage: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceProfile      Resource = "profile"
	ResourceAvailability Resource = "availability"
	ResourceAssignment   Resource = "assignment"
	ResourceAppointment  Resource = "appointment"
	ResourceNote         Resource = "note"
	ResourceMessage      Resource = "message"
	ResourcePost         Resource = "post"
	ResourceBilling      Resource = "billing"
	ResourceClientRoster Resource = "client_roster"

	ResourceSystem Resource = "system"
	ResourceRBAC   Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourceProfile: {}, ResourceAvailability: {}, ResourceAssignment: {}, ResourceAppointment: {},
	ResourceNote: {}, ResourceMessage: {}, ResourcePost: {}, ResourceBilling: {}, ResourceClientRoster: {},
	ResourceSystem: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Policy subjects assigned to accounts through grouping policies in DomainSys.

const (
	WildcardRole Role = "*"

	RolePlatformAdmin Role = "role:platform:admin"
	RoleClient        Role = "role:client"
	RoleTherapist     Role = "role:therapist"
)

var KnownRoles = map[Role]struct{}{
	RolePlatformAdmin: {},
	RoleClient:        {},
	RoleTherapist:     {},
}

// RoleForAccount maps the account role stored on a session to its policy subject.
func RoleForAccount(accountRole string) (Role, error) {
	switch accountRole {
	case "client":
		return RoleClient, nil
	case "therapist":
		return RoleTherapist, nil
	default:
		return "", fmt.Errorf("%w: no policy role for account role %q", ErrInvalidArgs, accountRole)
	}
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys        Domain = "sys"
	DomainPrefixUser Domain = "user:"
	WildcardDomain   Domain = "*"
)

var reUUID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func UserDomain(userID string) Domain {
	return DomainPrefixUser + Domain(userID)
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}
	rest, ok := strings.CutPrefix(string(d), string(DomainPrefixUser))
	return ok && reUUID.MatchString(rest)
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete account id.
type GroupSubject string

// PermissionPolicy is a p row: role, domain, resource, action, eft.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
