package importer

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ehr/internal/platform/auth"
	"github.com/ehr/ehr/internal/platform/fhir"
)

// DefaultMaxBatch is used when the host process does not override it via
// --import-max-batch.
const DefaultMaxBatch = 10000

// Handler exposes the Import Orchestrator as the CodeSystem/$import FHIR
// operation.
type Handler struct {
	orch     *Orchestrator
	maxBatch int
}

// NewHandler constructs a Handler. maxBatch <= 0 falls back to
// DefaultMaxBatch.
func NewHandler(orch *Orchestrator, maxBatch int) *Handler {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Handler{orch: orch, maxBatch: maxBatch}
}

// RegisterRoutes registers POST /fhir/CodeSystem/$import beside the
// existing CodeSystem resource CRUD routes, gated the same way those write
// routes are.
func (h *Handler) RegisterRoutes(fhirGroup *echo.Group) {
	fhirGroup.POST("/CodeSystem/$import", h.Import, auth.RequireRole("admin"))
}

// importRequest flattens the $import operation's named parameters
// (spec.md §6) into one JSON body, the same simplification
// terminology.LookupRequest applies to CodeSystem/$lookup.
type importRequest struct {
	System   string             `json:"system"`
	Concept  []ImportConcept    `json:"concept,omitempty"`
	Property []ImportedProperty `json:"property,omitempty"`
}

func (h *Handler) Import(c echo.Context) error {
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if req.System == "" {
		return c.JSON(http.StatusBadRequest, fhir.NewOperationOutcome(
			fhir.IssueSeverityError, fhir.IssueTypeRequired, "parameter 'system' is required"))
	}

	total := len(req.Concept) + len(req.Property)
	if total > h.maxBatch {
		return c.JSON(http.StatusBadRequest, fhir.NewOperationOutcome(
			fhir.IssueSeverityError, fhir.IssueTypeValue,
			fmt.Sprintf("batch size %d exceeds the configured limit of %d", total, h.maxBatch)))
	}

	outcome, ierr := h.orch.Import(c.Request().Context(), ImportParams{
		SystemURL:   req.System,
		Concepts:    req.Concept,
		Properties:  req.Property,
		CallerRoles: auth.RolesFromContext(c.Request().Context()),
	})
	if ierr != nil {
		return c.JSON(statusForKind(ierr.Kind), fhir.NewOperationOutcome(
			fhir.IssueSeverityError, issueTypeForKind(ierr.Kind), ierr.Diagnostics))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"resourceType": "Parameters",
		"parameter": []map[string]interface{}{
			{"name": "return", "resource": refToFHIR(outcome.System)},
		},
	})
}

func statusForKind(k ErrorKind) int {
	switch k {
	case KindCodeSystemNotFound:
		return http.StatusNotFound
	case KindAmbiguousCodeSystem:
		return http.StatusConflict
	case KindUnknownCode, KindUnknownProperty:
		return http.StatusBadRequest
	case KindAuthorizationFailure:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func issueTypeForKind(k ErrorKind) string {
	switch k {
	case KindCodeSystemNotFound:
		return fhir.IssueTypeNotFound
	case KindAmbiguousCodeSystem:
		return fhir.IssueTypeConflict
	case KindUnknownCode, KindUnknownProperty:
		return fhir.IssueTypeValue
	case KindAuthorizationFailure:
		return fhir.IssueTypeSecurity
	default:
		return fhir.IssueTypeException
	}
}

// refToFHIR renders the minimal CodeSystem fields the $import response
// returns as its "return" out parameter. The full resource (with its
// FHIR id, status, etc.) lives in the host's codesystem domain; the Import
// Engine only ever sees the read-only projection in CodeSystemRef.
func refToFHIR(cs *CodeSystemRef) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "CodeSystem",
		"url":          cs.URL,
	}
}
