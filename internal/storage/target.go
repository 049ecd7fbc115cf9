package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"puc-service/internal/domain/puc"
)

var (
	// ErrDenied marks a write rejected on authorization or configuration
	// grounds. The cascade continues, but exhaustion is reported to the
	// operator as a permissions problem.
	ErrDenied = errors.New("storage target denied write")

	// ErrTransient marks a network or availability failure. Treated like a
	// denial for cascade purposes, distinguished in diagnostics.
	ErrTransient = errors.New("storage target unavailable")
)

// Target is one durable location a finished record may be committed to.
// The persistence coordinator holds an ordered list of these.
type Target interface {
	Name() string
	Write(ctx context.Context, rec *puc.TestRecord) error
}

// SQLSTATE classes for write classification.
const (
	codeInsufficientPrivilege = "42501"
	codeInvalidAuthorization  = "28000"
	codeInvalidPassword       = "28P01"
	codeUndefinedTable        = "42P01"
	codeUndefinedColumn       = "42703"
	codeUniqueViolation       = "23505"
)

// ClassifyWriteError wraps a target failure in ErrDenied or ErrTransient.
// Authorization codes and schema gaps read as configuration/permission
// problems; anything else (connection refused, timeouts, serialization) is
// transient.
func ClassifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInsufficientPrivilege, codeInvalidAuthorization, codeInvalidPassword,
			codeUndefinedTable, codeUndefinedColumn:
			return fmt.Errorf("%w: %v", ErrDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
