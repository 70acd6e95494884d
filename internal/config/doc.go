// Package config provides configuration structures and utilities for a11yscan.
// It turns command-line flags and the optional .a11yscan file into the
// per-target scan options, and resolves the XDG directories used for the
// scan history and the rule engine cache.
package config
