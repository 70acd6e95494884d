package database

import "errors"

var (
	// ErrDatabaseNotFound is returned by Open when the database file is
	// missing and creation was not requested.
	ErrDatabaseNotFound = errors.New("history database not found")

	// ErrScanNotFound is returned when no stored scan matches the requested ID.
	ErrScanNotFound = errors.New("scan not found")

	// ErrMalformedReport is returned when a stored report cannot be decoded.
	ErrMalformedReport = errors.New("malformed stored report")
)
