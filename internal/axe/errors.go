package axe

import "errors"

var (
	// ErrInvalidVersion is returned when the requested axe-core version is not
	// a plain MAJOR.MINOR.PATCH string.
	ErrInvalidVersion = errors.New("invalid axe-core version: expected MAJOR.MINOR.PATCH")

	// ErrEmptyScript is returned when the loaded script has no content.
	ErrEmptyScript = errors.New("axe-core script is empty")

	// ErrScriptTooLarge is returned when a download exceeds the size limit.
	// The partial body is discarded and never cached.
	ErrScriptTooLarge = errors.New("axe-core download exceeds the size limit")

	// ErrNotInjected is returned when the page has no axe global after injection.
	// Content Security Policies that forbid eval are the usual cause.
	ErrNotInjected = errors.New("axe-core is not available in the page after injection")
)
