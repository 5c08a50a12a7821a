package importer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CodeSystemLookup is the external resource layer spec.md §4.6 refers to:
// it resolves a canonical URL to the one CodeSystem that carries it,
// failing early when zero or more than one CodeSystem matches. The host's
// codesystem.Service satisfies this through the adapter in adapter.go.
type CodeSystemLookup interface {
	GetCodeSystemByURL(ctx context.Context, url string) (*CodeSystemRef, error)
}

// ErrCodeSystemNotFound and ErrAmbiguousCodeSystem are the sentinel errors a
// CodeSystemLookup implementation returns; the orchestrator translates them
// into the matching ImportError kind without string-matching.
var (
	ErrCodeSystemNotFound  = errors.New("code system not found")
	ErrAmbiguousCodeSystem = errors.New("multiple code systems match url")
)

// Orchestrator opens a transaction, runs the Concept Writer then the
// Property Writer, and commits or rolls back — §4.6. It holds the pool
// explicitly rather than resolving it through a module-level accessor (the
// source's pattern §9 flags for re-architecture); lifecycle (init/teardown)
// stays owned by the host process.
type Orchestrator struct {
	pool   *pgxpool.Pool
	lookup CodeSystemLookup
	log    zerolog.Logger
}

// NewOrchestrator constructs an Orchestrator. log is enriched per-call with
// system_url/concept_count/property_count fields, the same way
// middleware.Audit and middleware.Logger scope their fields.
func NewOrchestrator(pool *pgxpool.Pool, lookup CodeSystemLookup, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{pool: pool, lookup: lookup, log: log}
}

// Import runs one bounded-batch import. A failure at any step rolls back
// the whole transaction — the batch commits whole or fails whole, per
// spec.md §1's non-goal on partial-success reporting.
func (o *Orchestrator) Import(ctx context.Context, params ImportParams) (*ImportOutcome, *ImportError) {
	log := o.log.With().
		Str("system_url", params.SystemURL).
		Int("concept_count", len(params.Concepts)).
		Int("property_count", len(params.Properties)).
		Logger()

	if !hasElevatedRole(params.CallerRoles) {
		return nil, newImportError(KindAuthorizationFailure, "caller lacks required privilege")
	}

	cs, ierr := o.resolveCodeSystem(ctx, params.SystemURL)
	if ierr != nil {
		log.Error().Str("kind", string(ierr.Kind)).Msg("import rejected before transaction")
		return nil, ierr
	}

	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, storageFailureError(err)
	}
	defer tx.Rollback(ctx)

	st := newPGStore(tx)

	if len(params.Concepts) > 0 {
		if ierr := writeConcepts(ctx, st, cs, params.Concepts); ierr != nil {
			log.Error().Err(ierr).Str("kind", string(ierr.Kind)).Msg("import rolled back")
			return nil, ierr
		}
	}

	if len(params.Properties) > 0 {
		cache := newResolutionCache()
		if ierr := writeProperties(ctx, st, cs, cache, params.Properties); ierr != nil {
			log.Error().Err(ierr).Str("kind", string(ierr.Kind)).Msg("import rolled back")
			return nil, ierr
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageFailureError(err)
	}

	log.Info().Msg("import committed")
	return &ImportOutcome{
		System:            cs,
		ConceptsWritten:   len(params.Concepts),
		PropertiesWritten: len(params.Properties),
	}, nil
}

func (o *Orchestrator) resolveCodeSystem(ctx context.Context, url string) (*CodeSystemRef, *ImportError) {
	cs, err := o.lookup.GetCodeSystemByURL(ctx, url)
	switch {
	case err == nil:
		return cs, nil
	case errors.Is(err, ErrCodeSystemNotFound):
		return nil, newImportError(KindCodeSystemNotFound, "CodeSystemNotFound: "+url)
	case errors.Is(err, ErrAmbiguousCodeSystem):
		return nil, newImportError(KindAmbiguousCodeSystem, "AmbiguousCodeSystem: "+url)
	default:
		return nil, storageFailureError(err)
	}
}

func hasElevatedRole(roles []string) bool {
	for _, r := range roles {
		if r == "admin" {
			return true
		}
	}
	return false
}
