package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// errUniqueViolation is returned by store.InsertPropertyDef when a
// concurrent importer won the race to create the same (system, code)
// definition. The resolver treats it as a cue to retry the lookup rather
// than a failure — see §5's benign-race requirement.
var errUniqueViolation = errors.New("unique constraint violation")

// store is the transaction-scoped persistence seam the writers and resolver
// run against. A single implementation (pgStore) backs it against Postgres;
// tests exercise the pure logic above it through an in-memory fake, the
// same way every other domain in this repository fakes its Repository
// interface instead of a real database.
type store interface {
	// UpsertConcept inserts {system, code, display}, refreshing display on
	// conflict over (system, code).
	UpsertConcept(ctx context.Context, system uuid.UUID, code string, display *string) error

	// FindConceptID looks up a Coding's id by (system, code). The second
	// return value is false when no such Coding exists.
	FindConceptID(ctx context.Context, system uuid.UUID, code string) (uuid.UUID, bool, error)

	// FindPropertyDef looks up a CodeSystem_Property by (system, code). The
	// second return value is false when no such definition exists.
	FindPropertyDef(ctx context.Context, system uuid.UUID, code string) (CodeSystemProperty, bool, error)

	// InsertPropertyDef persists a new CodeSystem_Property and returns its
	// generated id. Returns errUniqueViolation (wrapped) if a concurrent
	// importer already created the same (system, code).
	InsertPropertyDef(ctx context.Context, p CodeSystemProperty) (uuid.UUID, error)

	// InsertCodingProperty inserts {coding, property, value, target?},
	// discarding silently on conflict over (coding, property, value).
	InsertCodingProperty(ctx context.Context, cp CodingProperty) error
}
