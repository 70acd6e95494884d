package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no URL is given.
	ErrNoTarget = errors.New("no target specified: provide a URL to scan")

	// ErrEmptyTarget is returned when a given URL is empty after trimming.
	ErrEmptyTarget = errors.New("empty target URL")

	// ErrInvalidURL is returned when a target cannot be parsed as a URL.
	ErrInvalidURL = errors.New("invalid target URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrOutputWithMultipleTargets is returned when --output is combined with
	// several targets. Every target would overwrite the same file.
	ErrOutputWithMultipleTargets = errors.New("--output cannot be used with multiple targets")

	// ErrUploadNotConfigured is returned when --upload is given but the
	// configuration file has no usable upload section. The storage error
	// naming the missing setting is wrapped alongside it.
	ErrUploadNotConfigured = errors.New("upload requested but the upload section is incomplete")

	// ErrNoDBDir is returned when history is enabled without a directory.
	ErrNoDBDir = errors.New("scan history enabled but no database directory set")
)
