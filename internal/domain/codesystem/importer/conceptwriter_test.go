package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWriteConcepts_UpsertsEachConcept(t *testing.T) {
	st := newFakeStore()
	cs := &CodeSystemRef{ID: uuid.New()}
	display := "Systolic BP"

	ierr := writeConcepts(context.Background(), st, cs, []ImportConcept{
		{Code: "8480-6", Display: &display},
		{Code: "8462-4"},
	})
	if ierr != nil {
		t.Fatalf("unexpected error: %v", ierr)
	}

	if _, ok, _ := st.FindConceptID(context.Background(), cs.ID, "8480-6"); !ok {
		t.Fatal("expected 8480-6 to be written")
	}
	if _, ok, _ := st.FindConceptID(context.Background(), cs.ID, "8462-4"); !ok {
		t.Fatal("expected 8462-4 to be written")
	}
}

func TestWriteConcepts_ReimportIsIdempotent(t *testing.T) {
	st := newFakeStore()
	cs := &CodeSystemRef{ID: uuid.New()}

	for i := 0; i < 2; i++ {
		if ierr := writeConcepts(context.Background(), st, cs, []ImportConcept{{Code: "8480-6"}}); ierr != nil {
			t.Fatalf("unexpected error on pass %d: %v", i, ierr)
		}
	}

	id1, _, _ := st.FindConceptID(context.Background(), cs.ID, "8480-6")
	id2, _, _ := st.FindConceptID(context.Background(), cs.ID, "8480-6")
	if id1 != id2 {
		t.Fatalf("re-importing the same concept produced a different id: %v != %v", id1, id2)
	}
}
