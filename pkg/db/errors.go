package db

import "github.com/pkg/errors"

// uniqueViolationCode is the SQLSTATE class for unique and primary key
// constraint violations.
const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err (anywhere in its chain) is a unique
// or primary key constraint violation. Callers use this to tell "another
// process already recorded this row" apart from genuine failures.
func IsUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == uniqueViolationCode
	}

	return false
}
