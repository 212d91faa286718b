package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

const (
	clientID    = "0b6b7d4e-4f1e-4c62-9a3d-2d3c8c6f9a01"
	therapistID = "7f1c2a9e-1b0d-4e8f-8a6b-5c4d3e2f1a02"
	adminID     = "c3d2e1f0-9a8b-4c7d-8e6f-5a4b3c2d1e03"
)

// newTestAuthorization builds an enforcer over an empty policy file.
func newTestAuthorization(t *testing.T, bypass bool) *Authorization {
	t.Helper()

	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policyPath, nil, 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	m, err := LoadModel("")
	if err != nil {
		t.Fatalf("failed to load embedded model: %v", err)
	}
	e, err := casbin.NewDistributedEnforcer(m, fileadapter.NewAdapter(policyPath))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}
	e.EnableAutoSave(false)

	auth, err := NewAuthorization(e, bypass)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	return auth
}

func seeded(t *testing.T) *Authorization {
	t.Helper()
	ctx := context.Background()
	auth := newTestAuthorization(t, true)

	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := AssignAccountRole(ctx, auth, clientID, "client"); err != nil {
		t.Fatalf("assign client: %v", err)
	}
	if err := AssignAccountRole(ctx, auth, therapistID, "therapist"); err != nil {
		t.Fatalf("assign therapist: %v", err)
	}
	if _, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(adminID), RolePlatformAdmin, DomainSys); err != nil {
		t.Fatalf("assign admin: %v", err)
	}
	return auth
}

func TestNewAuthorizationNilEnforcer(t *testing.T) {
	if _, err := NewAuthorization(nil, false); err == nil {
		t.Error("expected error for nil enforcer")
	}
}

func TestDefaultPolicies(t *testing.T) {
	auth := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  string
		resource Resource
		action   Action
		want     bool
	}{
		{"client books", clientID, ResourceAppointment, ActionCreate, true},
		{"client cancels", clientID, ResourceAppointment, ActionUpdate, true},
		{"client reads notes", clientID, ResourceNote, ActionRead, true},
		{"client cannot write notes", clientID, ResourceNote, ActionCreate, false},
		{"client cannot set availability", clientID, ResourceAvailability, ActionUpdate, false},
		{"client cannot list roster", clientID, ResourceClientRoster, ActionList, false},
		{"therapist writes notes via manage", therapistID, ResourceNote, ActionCreate, true},
		{"therapist sets availability", therapistID, ResourceAvailability, ActionUpdate, true},
		{"therapist cannot book", therapistID, ResourceAppointment, ActionCreate, false},
		{"therapist cannot check out", therapistID, ResourceBilling, ActionCreate, false},
		{"client reads payment history", clientID, ResourceBilling, ActionRead, true},
		{"therapist has no payment history", therapistID, ResourceBilling, ActionRead, false},
		{"admin bypass", adminID, ResourceRBAC, ActionDelete, true},
		{"stranger denied", "5e5e5e5e-0000-4000-8000-000000000000", ResourcePost, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, GroupSubject(tt.subject), DomainSys, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Enforce: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceValidatesArguments(t *testing.T) {
	auth := seeded(t)
	ctx := context.Background()

	cases := map[string]func() error{
		"empty subject": func() error {
			_, err := auth.Enforce(ctx, "", DomainSys, ResourceNote, ActionRead)
			return err
		},
		"bad domain": func() error {
			_, err := auth.Enforce(ctx, GroupSubject(clientID), Domain("org:1"), ResourceNote, ActionRead)
			return err
		},
		"unknown resource": func() error {
			_, err := auth.Enforce(ctx, GroupSubject(clientID), DomainSys, Resource("ledger"), ActionRead)
			return err
		},
		"unknown action": func() error {
			_, err := auth.Enforce(ctx, GroupSubject(clientID), DomainSys, ResourceNote, Action("approve"))
			return err
		},
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("expected ErrInvalidArgs, got %v", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := seeded(t)
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, GroupSubject(therapistID), DomainSys, ResourceNote, ActionCreate); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := auth.MustEnforce(ctx, GroupSubject(clientID), DomainSys, ResourceNote, ActionCreate); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestBypassDisabled(t *testing.T) {
	auth := newTestAuthorization(t, false)
	ctx := context.Background()
	if _, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(adminID), RolePlatformAdmin, DomainSys); err != nil {
		t.Fatal(err)
	}
	ok, err := auth.Enforce(ctx, GroupSubject(adminID), DomainSys, ResourceNote, ActionRead)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("admin should need an explicit policy when bypass is off")
	}
}

func TestRoleManagement(t *testing.T) {
	auth := newTestAuthorization(t, false)
	ctx := context.Background()
	subject := GroupSubject(clientID)

	added, err := auth.AddRoleForUserInDomain(ctx, subject, RoleClient, DomainSys)
	if err != nil || !added {
		t.Fatalf("add role: added=%v err=%v", added, err)
	}

	roles, err := auth.GetRolesForUserInDomain(ctx, subject, DomainSys)
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 || roles[0] != RoleClient {
		t.Fatalf("roles = %v", roles)
	}

	removed, err := auth.RemoveRoleForUserInDomain(ctx, subject, RoleClient, DomainSys)
	if err != nil || !removed {
		t.Fatalf("remove role: removed=%v err=%v", removed, err)
	}

	if _, err := auth.AddRoleForUserInDomain(ctx, subject, Role("role:owner"), DomainSys); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestAddPermissionRejectsBadEffect(t *testing.T) {
	auth := newTestAuthorization(t, false)
	_, err := auth.AddPermission(context.Background(), PermissionPolicy{
		Subject: RoleClient, Domain: DomainSys, Object: ResourcePost, Action: ActionRead, Effect: "maybe",
	})
	if !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestAuditedAuthorizationDelegates(t *testing.T) {
	inner := seeded(t)
	audited := NewAuditedAuthorization(inner, nil)

	err := audited.MustEnforce(context.Background(), GroupSubject(clientID), DomainSys, ResourceNote, ActionCreate)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
