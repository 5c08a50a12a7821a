package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbTx is the subset of pgx.Tx this package relies on, matching the
// "queryable" seam codesystem/repo_pg.go and every other repo_pg.go in this
// codebase uses to accept either a *pgxpool.Pool, a *pgxpool.Conn, or a
// pgx.Tx interchangeably. The orchestrator always passes a live pgx.Tx —
// the Import Engine runs its whole write path inside one transaction.
type dbTx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgStore struct {
	tx dbTx
}

func newPGStore(tx dbTx) *pgStore {
	return &pgStore{tx: tx}
}

// UpsertConcept inserts a new Coding with a freshly generated id, or, on a
// repeat import of the same (system, code), refreshes display only — id is
// never reassigned (nonKeyAssignments excludes it unconditionally), so an
// existing row's primary key survives a re-import even though the INSERT
// values always carry a new uuid.New() for the not-found case.
func (s *pgStore) UpsertConcept(ctx context.Context, system uuid.UUID, code string, display *string) error {
	sql, args := Into("coding").
		Columns("id", "system", "code", "display").
		Values(uuid.New(), system, code, display).
		OnConflictMerge("system", "code").
		Build()
	_, err := s.tx.Exec(ctx, sql, args...)
	return err
}

func (s *pgStore) FindConceptID(ctx context.Context, system uuid.UUID, code string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.tx.QueryRow(ctx,
		`SELECT id FROM coding WHERE system = $1 AND code = $2`, system, code,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (s *pgStore) FindPropertyDef(ctx context.Context, system uuid.UUID, code string) (CodeSystemProperty, bool, error) {
	var p CodeSystemProperty
	p.System = system
	p.Code = code
	err := s.tx.QueryRow(ctx,
		`SELECT id, type, uri, description FROM code_system_property WHERE system = $1 AND code = $2`,
		system, code,
	).Scan(&p.ID, &p.Type, &p.URI, &p.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return CodeSystemProperty{}, false, nil
	}
	if err != nil {
		return CodeSystemProperty{}, false, err
	}
	return p, true, nil
}

func (s *pgStore) InsertPropertyDef(ctx context.Context, p CodeSystemProperty) (uuid.UUID, error) {
	id := uuid.New()
	sql, args := Into("code_system_property").
		Columns("id", "system", "code", "type", "uri", "description").
		Values(id, p.System, p.Code, p.Type, p.URI, p.Description).
		Returning("id").
		Build()
	var returned uuid.UUID
	err := s.tx.QueryRow(ctx, sql, args...).Scan(&returned)
	if isUniqueViolation(err) {
		return uuid.Nil, fmt.Errorf("insert code_system_property (%s, %s): %w", p.System, p.Code, errUniqueViolation)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return returned, nil
}

func (s *pgStore) InsertCodingProperty(ctx context.Context, cp CodingProperty) error {
	sql, args := Into("coding_property").
		Columns("coding", "property", "value", "target").
		Values(cp.Coding, cp.Property, cp.Value, cp.Target).
		OnConflictIgnore().
		Build()
	_, err := s.tx.Exec(ctx, sql, args...)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal that a concurrent importer won the race to
// create the same property definition — see §5.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
