package importer

import "context"

// writeProperties implements §4.5's state machine for every imported
// property: locate the owning concept, resolve the property (consulting
// cache, falling through to the resolver on miss), resolve a relationship
// target when applicable, and insert under ignoreOnConflict. Entries are
// processed in input order; a relationship whose target concept appears
// earlier in the same batch links because the Concept Writer's pass
// completes before this one begins.
func writeProperties(ctx context.Context, st store, cs *CodeSystemRef, cache resolutionCache, props []ImportedProperty) *ImportError {
	for _, p := range props {
		conceptID, found, err := st.FindConceptID(ctx, cs.ID, p.Code)
		if err != nil {
			return storageFailureError(err)
		}
		if !found {
			return unknownCodeError(cs.URL, p.Code)
		}

		resolved, ok := cache.get(cs.URL, p.Property)
		if !ok {
			var ierr *ImportError
			resolved, ierr = resolveProperty(ctx, st, cs, p.Property)
			if ierr != nil {
				return ierr
			}
			cache.put(cs.URL, p.Property, resolved)
		}

		row := CodingProperty{Coding: conceptID, Property: resolved.id, Value: p.Value}
		if resolved.isRelationship {
			if targetID, found, err := st.FindConceptID(ctx, cs.ID, p.Value); err != nil {
				return storageFailureError(err)
			} else if found {
				row.Target = &targetID
			}
		}

		if err := st.InsertCodingProperty(ctx, row); err != nil {
			return storageFailureError(err)
		}
	}
	return nil
}
