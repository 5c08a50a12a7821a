package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const parentPropertyURI = "http://hl7.org/fhir/concept-properties#parent"

// resolveProperty implements §4.3's resolution algorithm: search the
// CodeSystem's declared property list, fall back to implicit "parent"
// semantics, or fail with UnknownProperty. It then persists the
// definition — looking it up if already present, inserting it if not —
// and classifies it as a relationship iff its type is "code".
func resolveProperty(ctx context.Context, st store, cs *CodeSystemRef, code string) (resolvedProperty, *ImportError) {
	def, found := findDeclaredProperty(cs, code)
	if !found {
		def, found = implicitParentProperty(cs, code)
	}
	if !found {
		return resolvedProperty{}, unknownPropertyError(code)
	}

	id, err := persistPropertyDef(ctx, st, cs.ID, def)
	if err != nil {
		return resolvedProperty{}, storageFailureError(err)
	}

	return resolvedProperty{id: id, isRelationship: def.Type == "code"}, nil
}

func findDeclaredProperty(cs *CodeSystemRef, code string) (PropertyDef, bool) {
	for _, p := range cs.Properties {
		if p.Code == code {
			return p, true
		}
	}
	return PropertyDef{}, false
}

// implicitParentProperty synthesizes the default "parent" relationship
// property when the requested code is the CodeSystem's hierarchyMeaning, or
// when it is the literal string "parent" and the CodeSystem declares no
// hierarchyMeaning at all.
func implicitParentProperty(cs *CodeSystemRef, code string) (PropertyDef, bool) {
	isHierarchyMeaning := cs.HierarchyMeaning != nil && *cs.HierarchyMeaning == code
	isBareParent := cs.HierarchyMeaning == nil && code == "parent"
	if !isHierarchyMeaning && !isBareParent {
		return PropertyDef{}, false
	}
	return PropertyDef{Code: code, URI: parentPropertyURI, Type: "code"}, true
}

// persistPropertyDef is the lazy lookup-or-insert pair from §4.3. The pair
// is not atomic on its own; a concurrent importer may insert the same
// (system, code) first, in which case InsertPropertyDef reports
// errUniqueViolation and this function retries the lookup, which must now
// succeed — see §5's benign-race requirement.
func persistPropertyDef(ctx context.Context, st store, system uuid.UUID, def PropertyDef) (uuid.UUID, error) {
	existing, found, err := st.FindPropertyDef(ctx, system, def.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if found {
		return existing.ID, nil
	}

	id, err := st.InsertPropertyDef(ctx, CodeSystemProperty{
		System:      system,
		Code:        def.Code,
		Type:        def.Type,
		URI:         def.URI,
		Description: def.Description,
	})
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errUniqueViolation) {
		return uuid.Nil, err
	}

	existing, found, err = st.FindPropertyDef(ctx, system, def.Code)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, errors.New("property definition disappeared after unique-violation retry")
	}
	return existing.ID, nil
}
