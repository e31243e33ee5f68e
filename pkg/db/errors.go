package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Matching on the driver message keeps the check working
// for both Postgres and the sqlite driver the tests run on.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
