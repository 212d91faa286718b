package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set for the two account roles.
// Ownership checks (own appointment, own notes) live in the services.
func DefaultPolicies() []PermissionPolicy {
	allow := func(r Role, obj Resource, act Action) PermissionPolicy {
		return PermissionPolicy{Subject: r, Domain: DomainSys, Object: obj, Action: act, Effect: EffectAllow}
	}

	return []PermissionPolicy{
		allow(RolePlatformAdmin, WildcardResource, WildcardAction),

		// client
		allow(RoleClient, ResourceProfile, ActionManage),
		allow(RoleClient, ResourceAvailability, ActionRead),
		allow(RoleClient, ResourceAssignment, ActionManage),
		allow(RoleClient, ResourceAppointment, ActionCreate),
		allow(RoleClient, ResourceAppointment, ActionRead),
		allow(RoleClient, ResourceAppointment, ActionList),
		allow(RoleClient, ResourceAppointment, ActionUpdate),
		allow(RoleClient, ResourceNote, ActionRead),
		allow(RoleClient, ResourceMessage, ActionManage),
		allow(RoleClient, ResourcePost, ActionManage),
		allow(RoleClient, ResourceBilling, ActionCreate),
		allow(RoleClient, ResourceBilling, ActionRead),

		// therapist
		allow(RoleTherapist, ResourceProfile, ActionManage),
		allow(RoleTherapist, ResourceAvailability, ActionManage),
		allow(RoleTherapist, ResourceAssignment, ActionRead),
		allow(RoleTherapist, ResourceClientRoster, ActionList),
		allow(RoleTherapist, ResourceAppointment, ActionRead),
		allow(RoleTherapist, ResourceAppointment, ActionList),
		allow(RoleTherapist, ResourceAppointment, ActionUpdate),
		allow(RoleTherapist, ResourceNote, ActionManage),
		allow(RoleTherapist, ResourceMessage, ActionManage),
		allow(RoleTherapist, ResourcePost, ActionManage),
	}
}

// SeedDefaultPolicies installs DefaultPolicies. Existing rows are left alone.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p)
		if err != nil {
			slog.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			slog.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	slog.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}

// AssignAccountRole grants the policy role matching an account role in DomainSys.
func AssignAccountRole(ctx context.Context, auth IAuthorization, userID, accountRole string) error {
	role, err := RoleForAccount(accountRole)
	if err != nil {
		return err
	}
	_, err = auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}
