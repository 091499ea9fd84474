package importrun

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

// Marks for the error taxonomy. Match with crerr.Is through any amount of wrapping.
var (
	ErrSourceValidation    = crerr.New("source validation failed")
	ErrUnresolvedEntity    = crerr.New("unresolved entity")
	ErrAmbiguousTeam       = crerr.New("ambiguous team match")
	ErrConstraintViolation = crerr.New("constraint violation")
	ErrFatalImport         = crerr.New("fatal import error")
	ErrTransactionFailure  = crerr.New("transaction failure")
	ErrErrorCeiling        = crerr.New("record error ceiling exceeded")
	ErrProductionGate      = crerr.New("production run not confirmed")
)

// SourceValidationError means a source file cannot be imported at all. Raised before any write.
type SourceValidationError struct {
	File   string
	Reason string
}

func (e *SourceValidationError) Error() string {
	return fmt.Sprintf("source %s: %s", e.File, e.Reason)
}

func (e *SourceValidationError) Is(target error) bool {
	return target == ErrSourceValidation
}

func NewSourceValidationError(file, format string, args ...any) error {
	return &SourceValidationError{File: file, Reason: fmt.Sprintf(format, args...)}
}

// UnresolvedEntityError carries the raw input that could not be turned into an identity.
type UnresolvedEntityError struct {
	Kind   string
	Raw    string
	Reason string
	// Candidates are the ids that matched equally well when the input was ambiguous.
	Candidates []int64
}

func (e *UnresolvedEntityError) Error() string {
	return fmt.Sprintf("unresolved %s %q: %s", e.Kind, e.Raw, e.Reason)
}

func (e *UnresolvedEntityError) Is(target error) bool {
	return target == ErrUnresolvedEntity || (target == ErrAmbiguousTeam && len(e.Candidates) > 1)
}

// ConstraintViolation marks err as a unique/foreign key violation on table.
func ConstraintViolation(err error, table, constraint string) error {
	wrapped := crerr.Wrapf(err, "upsert %s violated %s", table, constraint)
	return crerr.Mark(wrapped, ErrConstraintViolation)
}

// Fatal marks err as a condition that must abort the run.
func Fatal(err error, format string, args ...any) error {
	return crerr.Mark(crerr.Wrapf(err, format, args...), ErrFatalImport)
}

// TransactionFailure wraps the cause of a rolled back run.
func TransactionFailure(err error, state State) error {
	wrapped := crerr.WithDetailf(crerr.Wrapf(err, "import failed in state %s", state), "state=%s", state)
	return crerr.Mark(wrapped, ErrTransactionFailure)
}

func IsConstraintViolation(err error) bool {
	return crerr.Is(err, ErrConstraintViolation)
}
