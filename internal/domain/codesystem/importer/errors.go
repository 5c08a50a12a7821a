package importer

import "fmt"

// ErrorKind enumerates the Import Engine's error taxonomy. Every failure
// that can occur before or during an import is tagged with exactly one of
// these, so the HTTP and CLI seams can translate it without string-matching
// diagnostics.
type ErrorKind string

const (
	KindCodeSystemNotFound   ErrorKind = "CodeSystemNotFound"
	KindAmbiguousCodeSystem  ErrorKind = "AmbiguousCodeSystem"
	KindUnknownCode          ErrorKind = "UnknownCode"
	KindUnknownProperty      ErrorKind = "UnknownProperty"
	KindStorageFailure       ErrorKind = "StorageFailure"
	KindAuthorizationFailure ErrorKind = "AuthorizationFailure"
)

// ImportError is the structured outcome the orchestrator returns on
// failure: a stable diagnostic string, a severity of error (implicit — the
// engine has no warning-level outcomes), and a Kind the caller can switch
// on. It wraps the underlying cause when there is one.
type ImportError struct {
	Kind        ErrorKind
	Diagnostics string
	Cause       error
}

func (e *ImportError) Error() string { return e.Diagnostics }

func (e *ImportError) Unwrap() error { return e.Cause }

func newImportError(kind ErrorKind, diagnostics string) *ImportError {
	return &ImportError{Kind: kind, Diagnostics: diagnostics}
}

func wrapImportError(kind ErrorKind, diagnostics string, cause error) *ImportError {
	return &ImportError{Kind: kind, Diagnostics: diagnostics, Cause: cause}
}

func unknownCodeError(systemURL, code string) *ImportError {
	return newImportError(KindUnknownCode, fmt.Sprintf("Unknown code: %s|%s", systemURL, code))
}

func unknownPropertyError(code string) *ImportError {
	return newImportError(KindUnknownProperty, fmt.Sprintf("Unknown property: %s", code))
}

func storageFailureError(cause error) *ImportError {
	return wrapImportError(KindStorageFailure, "storage failure: "+cause.Error(), cause)
}
