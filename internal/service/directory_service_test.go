package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util/errorutil"
)

func TestDirectoryRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.directory.CreateDepartment(ctx, officer, DepartmentInput{Name: "Health"}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := env.directory.CreateOfficer(ctx, domain.SystemActor, OfficerInput{Name: "A B", DepartmentID: "x"}); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDirectoryDepartments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.directory.CreateDepartment(ctx, admin, DepartmentInput{Name: "H", ContactEmail: "nope"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	health := env.department("Health", "Pune")
	water := env.department("Water Resources", "Pune")
	if !health.Active {
		t.Fatalf("departments start active")
	}
	inactive := false
	if _, err := env.directory.UpdateDepartment(ctx, admin, water.ID, DepartmentInput{Name: water.Name, Active: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}

	active, _ := env.directory.ListDepartments(ctx, false)
	all, _ := env.directory.ListDepartments(ctx, true)
	if len(active) != 1 || active[0].ID != health.ID || len(all) != 2 {
		t.Fatalf("unexpected listings active=%+v all=%+v", active, all)
	}
	if _, err := env.directory.GetDepartment(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.directory.UpdateDepartment(ctx, admin, "missing", DepartmentInput{Name: "Health"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
}

func TestDirectoryOfficers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dept := env.department("Water Resources", "Pune")

	if _, err := env.directory.CreateOfficer(ctx, admin, OfficerInput{Name: "Asha Patil", DepartmentID: "missing"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected department not found, got %v", err)
	}
	o := env.officer(dept.ID)
	got, err := env.directory.GetOfficer(ctx, o.ID)
	if err != nil || got.DepartmentID != dept.ID || !got.Active {
		t.Fatalf("unexpected officer %+v %v", got, err)
	}

	inactive := false
	if _, err := env.directory.UpdateOfficer(ctx, admin, o.ID, OfficerInput{Name: o.Name, DepartmentID: dept.ID, Active: &inactive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	active, _ := env.directory.ListOfficers(ctx, &dept.ID, false)
	all, _ := env.directory.ListOfficers(ctx, &dept.ID, true)
	if len(active) != 0 || len(all) != 1 {
		t.Fatalf("unexpected officer listings active=%d all=%d", len(active), len(all))
	}
}
