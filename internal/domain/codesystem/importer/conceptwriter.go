package importer

import "context"

// writeConcepts upserts each incoming concept into the Coding table under
// mergeOnConflict(["system","code"]), so re-importing a concept with a new
// display refreshes it. Processing order matches input order; order does
// not affect final state since the writer is idempotent per concept.
func writeConcepts(ctx context.Context, st store, cs *CodeSystemRef, concepts []ImportConcept) *ImportError {
	for _, c := range concepts {
		if err := st.UpsertConcept(ctx, cs.ID, c.Code, c.Display); err != nil {
			return storageFailureError(err)
		}
	}
	return nil
}
