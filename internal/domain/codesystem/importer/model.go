// Package importer implements the CodeSystem/$import operation: given a
// canonical CodeSystem URL and a batch of concepts and concept properties,
// it upserts Codings, resolves or creates CodeSystem_Property definitions,
// and writes Coding_Property rows, all inside one transaction.
package importer

import "github.com/google/uuid"

// PropertyDef is one entry of a CodeSystem's declared property list, as seen
// by the resolver. Mirrors codesystem.PropertyDefinition without importing
// that package's persistence concerns into the resolver's pure logic.
type PropertyDef struct {
	Code        string
	URI         string
	Type        string
	Description *string
}

// CodeSystemRef is the read-only view of a CodeSystem the import engine
// needs: its internal id, canonical URL, hierarchy-meaning property code,
// and declared property list. The host's codesystem.Service builds this
// from its own CodeSystem resource via the CodeSystemLookup seam.
type CodeSystemRef struct {
	ID               uuid.UUID
	URL              string
	HierarchyMeaning *string
	Properties       []PropertyDef
}

// Coding is a concept row belonging to exactly one CodeSystem.
type Coding struct {
	ID      uuid.UUID
	System  uuid.UUID
	Code    string
	Display *string
}

// CodeSystemProperty is a named property definition local to a CodeSystem.
// Type "code" marks a relationship property; any other value marks a plain
// attribute property.
type CodeSystemProperty struct {
	ID          uuid.UUID
	System      uuid.UUID
	Code        string
	Type        string
	URI         string
	Description *string
}

// CodingProperty is a property value attached to one Coding. It doubles as
// the tagged variant the Property Writer builds: Target nil means either a
// plain attribute or a relationship whose target concept didn't resolve;
// Target set means a relationship whose value matched a concept's code in
// the same system.
type CodingProperty struct {
	Coding   uuid.UUID
	Property uuid.UUID
	Value    string
	Target   *uuid.UUID
}

// ImportConcept is one entry of the batch's concept list.
type ImportConcept struct {
	Code    string  `json:"code"`
	Display *string `json:"display,omitempty"`
}

// ImportedProperty is the transient per-call payload for one property value:
// code names a concept in the target CodeSystem, property names a property
// definition (possibly implicit "parent"), value is the textual value (a
// target code, for relationships).
type ImportedProperty struct {
	Code     string `json:"code"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// resolvedProperty is the Property Resolver's output: the persisted
// definition's id and whether it classifies as a relationship.
type resolvedProperty struct {
	id             uuid.UUID
	isRelationship bool
}

// ImportParams is the Import Orchestrator's single entry point payload.
// CallerRoles carries the caller's roles so the orchestrator can assert
// elevated privilege itself — spec.md §6 requires this even though the HTTP
// seam also gates the route with auth.RequireRole("admin").
type ImportParams struct {
	SystemURL   string
	Concepts    []ImportConcept
	Properties  []ImportedProperty
	CallerRoles []string
}

// ImportOutcome is returned on a successful import.
type ImportOutcome struct {
	System            *CodeSystemRef
	ConceptsWritten   int
	PropertiesWritten int
}
