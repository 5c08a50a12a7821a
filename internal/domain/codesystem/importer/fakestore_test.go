package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for store, grounded on the mock*Repo
// pattern admin/service_test.go uses for its own dependencies.
type fakeStore struct {
	concepts map[string]uuid.UUID // "system|code" -> coding id
	propDefs map[string]CodeSystemProperty
	codingProps []CodingProperty

	// failNextInsertPropertyDef, when set, makes the next InsertPropertyDef
	// call report errUniqueViolation instead of inserting, simulating a
	// concurrent importer winning the race.
	failNextInsertPropertyDef bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		concepts: make(map[string]uuid.UUID),
		propDefs: make(map[string]CodeSystemProperty),
	}
}

func conceptKey(system uuid.UUID, code string) string { return system.String() + "|" + code }

func (f *fakeStore) UpsertConcept(_ context.Context, system uuid.UUID, code string, _ *string) error {
	key := conceptKey(system, code)
	if _, ok := f.concepts[key]; !ok {
		f.concepts[key] = uuid.New()
	}
	return nil
}

func (f *fakeStore) FindConceptID(_ context.Context, system uuid.UUID, code string) (uuid.UUID, bool, error) {
	id, ok := f.concepts[conceptKey(system, code)]
	return id, ok, nil
}

func (f *fakeStore) FindPropertyDef(_ context.Context, system uuid.UUID, code string) (CodeSystemProperty, bool, error) {
	def, ok := f.propDefs[conceptKey(system, code)]
	return def, ok, nil
}

func (f *fakeStore) InsertPropertyDef(_ context.Context, p CodeSystemProperty) (uuid.UUID, error) {
	if f.failNextInsertPropertyDef {
		f.failNextInsertPropertyDef = false
		// A concurrent importer commits the same definition at exactly this
		// moment, so the retry this forces finds it.
		key := conceptKey(p.System, p.Code)
		p.ID = uuid.New()
		f.propDefs[key] = p
		return uuid.Nil, fmt.Errorf("insert code_system_property (%s, %s): %w", p.System, p.Code, errUniqueViolation)
	}
	key := conceptKey(p.System, p.Code)
	if _, ok := f.propDefs[key]; ok {
		return uuid.Nil, errUniqueViolation
	}
	p.ID = uuid.New()
	f.propDefs[key] = p
	return p.ID, nil
}

func (f *fakeStore) InsertCodingProperty(_ context.Context, cp CodingProperty) error {
	for _, existing := range f.codingProps {
		if existing.Coding == cp.Coding && existing.Property == cp.Property && existing.Value == cp.Value {
			return nil // OnConflictIgnore
		}
	}
	f.codingProps = append(f.codingProps, cp)
	return nil
}
