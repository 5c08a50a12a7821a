package importer

import (
	"fmt"
	"strings"
)

type conflictMode int

const (
	conflictNone conflictMode = iota
	conflictMerge
	conflictIgnore
)

// InsertBuilder composes a parameterized INSERT statement with a
// table-specific conflict policy. It is an immutable value: every method
// returns a new builder rather than mutating the receiver, so a builder can
// be safely reused as a template for several statements. Build is the
// single consuming step that renders SQL text and the matching argument
// slice; no value is ever interpolated into the SQL string itself.
type InsertBuilder struct {
	table        string
	cols         []string
	vals         []any
	conflictMode conflictMode
	conflictKeys []string
	returning    string
}

// NewInsertBuilder starts a builder for the given table.
func NewInsertBuilder(table string) InsertBuilder {
	return InsertBuilder{table: table}
}

// Into is an alias for NewInsertBuilder, read fluently: Into("coding").
func Into(table string) InsertBuilder {
	return NewInsertBuilder(table)
}

// Columns sets the column list. Call once; the returned builder carries the
// columns, the receiver is untouched.
func (b InsertBuilder) Columns(cols ...string) InsertBuilder {
	b.cols = append([]string(nil), cols...)
	return b
}

// Values sets the bound parameter values, positionally matched to Columns.
func (b InsertBuilder) Values(vals ...any) InsertBuilder {
	b.vals = append([]any(nil), vals...)
	return b
}

// OnConflictMerge requests "insert; on collision over keys, update every
// non-key column to the new value" — used by the Concept Writer so
// re-importing a concept with a new display refreshes it.
func (b InsertBuilder) OnConflictMerge(keys ...string) InsertBuilder {
	b.conflictMode = conflictMerge
	b.conflictKeys = append([]string(nil), keys...)
	return b
}

// OnConflictIgnore requests "insert; on any unique violation, discard
// silently" — used by the Property Writer so repeated imports are
// idempotent.
func (b InsertBuilder) OnConflictIgnore() InsertBuilder {
	b.conflictMode = conflictIgnore
	b.conflictKeys = nil
	return b
}

// Returning requests the INSERT emit the given column of the inserted (or,
// under OnConflictMerge, upserted) row.
func (b InsertBuilder) Returning(col string) InsertBuilder {
	b.returning = col
	return b
}

// Build renders the statement and its bound arguments. Identifier names
// (table and column names) are never parameter-bound — only values are —
// matching the fixed, code-controlled table/column set this builder targets.
func (b InsertBuilder) Build() (string, []any) {
	var sql strings.Builder
	fmt.Fprintf(&sql, "INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(b.cols, ", "), placeholders(len(b.vals)))

	switch b.conflictMode {
	case conflictMerge:
		set := nonKeyAssignments(b.cols, b.conflictKeys)
		if len(set) > 0 {
			fmt.Fprintf(&sql, " ON CONFLICT (%s) DO UPDATE SET %s",
				strings.Join(b.conflictKeys, ", "), strings.Join(set, ", "))
		} else {
			fmt.Fprintf(&sql, " ON CONFLICT (%s) DO NOTHING", strings.Join(b.conflictKeys, ", "))
		}
	case conflictIgnore:
		sql.WriteString(" ON CONFLICT DO NOTHING")
	}

	if b.returning != "" {
		fmt.Fprintf(&sql, " RETURNING %s", b.returning)
	}

	return sql.String(), b.vals
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// nonKeyAssignments builds the DO UPDATE SET list: every column except the
// conflict keys and the surrogate "id" primary key. "id" is never
// reassigned on conflict — matching auth/smart_store_pg.go's upsert, which
// refreshes payload columns but leaves the row's identity alone — otherwise
// a re-import of an existing row would swap its primary key out from under
// any foreign key already pointing at it.
func nonKeyAssignments(cols, keys []string) []string {
	isKey := make(map[string]bool, len(keys)+1)
	isKey["id"] = true
	for _, k := range keys {
		isKey[k] = true
	}
	var set []string
	for _, c := range cols {
		if !isKey[c] {
			set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	return set
}
