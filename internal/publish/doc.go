// Package publish implements the final pipeline stage. It converts the
// extracted recipe document into Tandoor's native shape, checks for an
// existing recipe with the same name, posts the record, attaches the staged
// thumbnail, and cleans up the item's staging directory. A failed publish
// leaves an importable JSON file in the fallback directory.
package publish
