// Package recipe converts extracted schema.org recipe documents into the
// Tandoor create-recipe payload. Parsing is pure: ingredient lines, ISO 8601
// durations, and markdown instruction sections go in, typed records come out,
// and no I/O happens here.
package recipe
