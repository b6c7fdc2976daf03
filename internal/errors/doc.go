// Package errors provides structured diagnostics for patchwork.
//
// Diagnostics cover the recoverable class of failures: invalid builder
// input that degrades to an Empty node, duplicate keys seen by the
// reconciliation engine, malformed tree files and configuration. The
// engine itself never returns these for hook or capability failures;
// those propagate as panics.
//
// # Codes
//
// Each diagnostic has a code (e.g. "V001") that maps to a category, a
// short message and a longer explanation:
//
//	err := errors.New("V002").
//	    WithDetailf("key of type %T on <%s>", key, tag).
//	    WithSuggestion("Use a string or number key")
//
//	logger.Warn("build diagnostic", "diagnostic", err)
//
// Tree-file diagnostics carry a Location so the CLI can point at the
// offending line:
//
//	ERROR T001: Malformed tree description
//
//	  fixtures/list.yaml:12:5
package errors
