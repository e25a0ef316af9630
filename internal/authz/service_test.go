package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceOperatorWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/auctions/:auction_id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if _, err := svc.SetOperatorRoles("op-1", []string{"ops"}); err != nil {
		t.Fatalf("set operator roles failed: %v", err)
	}

	allow, err := svc.EnforceOperator("op-1", "", "/api/v1/admin/auctions/LB-42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceOperator("op-1", "", "/api/v1/admin/auctions/LB-42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetOperatorRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/awards", "GET"); err != nil {
		t.Fatalf("grant ops policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("compliance", "/admin/eligibility", "GET"); err != nil {
		t.Fatalf("grant compliance policy failed: %v", err)
	}

	if _, err := svc.SetOperatorRoles("op-2", []string{"ops"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetOperatorRoles("op-2")
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:ops" {
		t.Fatalf("roles want [role:ops], got=%v", roles)
	}

	roles, err = svc.SetOperatorRoles("op-2", []string{"compliance"})
	if err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:compliance" {
		t.Fatalf("roles want [role:compliance], got=%v", roles)
	}
	allow, err := svc.EnforceOperator("op-2", "", "/admin/awards", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}
	allow, err = svc.EnforceOperator("op-2", "", "/admin/eligibility", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestSetOperatorRolesRejectsUnknownRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if _, err := svc.SetOperatorRoles("op-3", []string{"dispatcher", "superuser"}); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("want ErrUnknownRole, got %v", err)
	}
	roles, err := svc.GetOperatorRoles("op-3")
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("rejected update must not assign roles, got=%v", roles)
	}
	if _, err := svc.SetOperatorRoles(" ", nil); !errors.Is(err, ErrSubjectRequired) {
		t.Fatalf("want ErrSubjectRequired, got %v", err)
	}
}

func TestListRolesWithPolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	roles, err := svc.ListRolesWithPolicies()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	found := false
	for _, role := range roles {
		if role.Role != "role:dispatcher" {
			continue
		}
		found = true
		if len(role.Policies) != 3 {
			t.Fatalf("dispatcher direct policies want 3, got=%v", role.Policies)
		}
	}
	if !found {
		t.Fatalf("dispatcher role missing: %v", roles)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/auctions/:auction_id", want: "/admin/auctions/:auction_id"},
		{in: "/admin/auctions/:auction_id", want: "/admin/auctions/:auction_id"},
		{in: "admin/awards", want: "/admin/awards"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:readonly_auditor": true,
		"role:dispatcher":       true,
		"role:admin":            true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{role: "dispatcher", object: "/api/v1/admin/archive", action: "GET", want: true},
		{role: "dispatcher", object: "/api/v1/admin/auctions/LB-1/award", action: "POST", want: true},
		{role: "dispatcher", object: "/api/v1/admin/archive/end-of-day", action: "POST", want: false},
		{role: "dispatcher", object: "/api/v1/admin/eligibility/disable", action: "POST", want: false},
		{role: "admin", object: "/api/v1/admin/archive/end-of-day", action: "POST", want: true},
		{role: "carrier", object: "/api/v1/admin/auctions", action: "GET", want: false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceOperator("", tc.role, tc.object, tc.action)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.action, tc.object, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s %s: want %v got %v", tc.role, tc.action, tc.object, tc.want, allow)
		}
	}
}
