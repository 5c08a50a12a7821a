package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// fakeLookup is a CodeSystemLookup stand-in; it never touches a database so
// these tests exercise Import's authorization check and lookup-error
// translation without a pool. The commit/rollback path past o.pool.Begin is
// left to integration tests, the same boundary repo_pg.go files sit behind
// in every other domain here.
type fakeLookup struct {
	ref *CodeSystemRef
	err error
}

func (f *fakeLookup) GetCodeSystemByURL(_ context.Context, _ string) (*CodeSystemRef, error) {
	return f.ref, f.err
}

func TestImport_RejectsWithoutElevatedRole(t *testing.T) {
	orch := NewOrchestrator(nil, &fakeLookup{}, zerolog.Nop())

	_, ierr := orch.Import(context.Background(), ImportParams{
		SystemURL:   "http://example.org/cs",
		CallerRoles: []string{"nurse"},
	})
	if ierr == nil {
		t.Fatal("expected an error")
	}
	if ierr.Kind != KindAuthorizationFailure {
		t.Fatalf("got kind %v, want KindAuthorizationFailure", ierr.Kind)
	}
}

func TestImport_TranslatesCodeSystemNotFound(t *testing.T) {
	orch := NewOrchestrator(nil, &fakeLookup{err: ErrCodeSystemNotFound}, zerolog.Nop())

	_, ierr := orch.Import(context.Background(), ImportParams{
		SystemURL:   "http://example.org/missing",
		CallerRoles: []string{"admin"},
	})
	if ierr == nil || ierr.Kind != KindCodeSystemNotFound {
		t.Fatalf("got %v, want KindCodeSystemNotFound", ierr)
	}
}

func TestImport_TranslatesAmbiguousCodeSystem(t *testing.T) {
	orch := NewOrchestrator(nil, &fakeLookup{err: ErrAmbiguousCodeSystem}, zerolog.Nop())

	_, ierr := orch.Import(context.Background(), ImportParams{
		SystemURL:   "http://example.org/dup",
		CallerRoles: []string{"admin"},
	})
	if ierr == nil || ierr.Kind != KindAmbiguousCodeSystem {
		t.Fatalf("got %v, want KindAmbiguousCodeSystem", ierr)
	}
}

func TestImport_TranslatesUnexpectedLookupErrorAsStorageFailure(t *testing.T) {
	orch := NewOrchestrator(nil, &fakeLookup{err: errors.New("connection refused")}, zerolog.Nop())

	_, ierr := orch.Import(context.Background(), ImportParams{
		SystemURL:   "http://example.org/cs",
		CallerRoles: []string{"admin"},
	})
	if ierr == nil || ierr.Kind != KindStorageFailure {
		t.Fatalf("got %v, want KindStorageFailure", ierr)
	}
}

func TestHasElevatedRole(t *testing.T) {
	if hasElevatedRole([]string{"nurse", "clerk"}) {
		t.Fatal("expected false for roles with no admin")
	}
	if !hasElevatedRole([]string{"nurse", "admin"}) {
		t.Fatal("expected true when admin is present")
	}
	if hasElevatedRole(nil) {
		t.Fatal("expected false for nil roles")
	}
}
