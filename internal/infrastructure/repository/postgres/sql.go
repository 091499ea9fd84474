package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
)

const (
	codeUniqueViolation     pq.ErrorCode = "23505"
	codeForeignKeyViolation pq.ErrorCode = "23503"
	codeNotNullViolation    pq.ErrorCode = "23502"
	codeCheckViolation      pq.ErrorCode = "23514"
	codeUndefinedTable      pq.ErrorCode = "42P01"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pqCode(err error) (pq.ErrorCode, *pq.Error) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr == nil {
		return "", nil
	}
	return pqErr.Code, pqErr
}

func isUndefinedTable(err error) bool {
	code, _ := pqCode(err)
	return code == codeUndefinedTable
}

// classifyWriteError marks integrity violations as constraint violations and returns anything else untouched.
func classifyWriteError(err error, tableName string) error {
	code, pqErr := pqCode(err)
	switch code {
	case codeUniqueViolation, codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation:
		constraint := pqErr.Constraint
		if constraint == "" {
			constraint = pqErr.Code.Name()
		}
		return importrun.ConstraintViolation(err, tableName, constraint)
	default:
		return err
	}
}

func nullableInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
