// Package tandoor provides the minimal Tandoor Recipes API client used by
// the publish stage.
//
// It authenticates with a bearer token and exposes duplicate lookup by name,
// recipe creation, thumbnail upload, and a health ping. Duplicate lookup is
// advisory: a failed lookup is distinguishable from "no duplicate found" so
// callers can decide whether to proceed. Creation failures carry the API's
// response detail for diagnosis and manual retry.
package tandoor
