package importer

import (
	"context"
	"errors"

	"github.com/ehr/ehr/internal/domain/codesystem"
)

// codeSystemServiceAdapter adapts codesystem.Service to CodeSystemLookup,
// translating its CodeSystem resource (and its own not-found/ambiguous
// sentinels) into this package's CodeSystemRef and sentinels. This is the
// only file in the importer package that imports codesystem — the writers,
// resolver, and orchestrator above operate purely on CodeSystemRef so they
// stay testable without the host's resource layer.
type codeSystemServiceAdapter struct {
	svc *codesystem.Service
}

// NewCodeSystemLookup wraps the host's CodeSystem resource service as a
// CodeSystemLookup for the Import Orchestrator.
func NewCodeSystemLookup(svc *codesystem.Service) CodeSystemLookup {
	return &codeSystemServiceAdapter{svc: svc}
}

func (a *codeSystemServiceAdapter) GetCodeSystemByURL(ctx context.Context, url string) (*CodeSystemRef, error) {
	cs, err := a.svc.GetCodeSystemByURL(ctx, url)
	switch {
	case errors.Is(err, codesystem.ErrCodeSystemNotFound):
		return nil, ErrCodeSystemNotFound
	case errors.Is(err, codesystem.ErrAmbiguousCodeSystem):
		return nil, ErrAmbiguousCodeSystem
	case err != nil:
		return nil, err
	}
	return toCodeSystemRef(cs), nil
}

func toCodeSystemRef(cs *codesystem.CodeSystem) *CodeSystemRef {
	ref := &CodeSystemRef{
		ID:               cs.ID,
		HierarchyMeaning: cs.HierarchyMeaning,
	}
	if cs.URL != nil {
		ref.URL = *cs.URL
	}
	ref.Properties = make([]PropertyDef, len(cs.Properties))
	for i, p := range cs.Properties {
		ref.Properties[i] = PropertyDef{
			Code:        p.Code,
			URI:         p.URI,
			Type:        p.Type,
			Description: p.Description,
		}
	}
	return ref
}
