// Package textutil provides filename and token sanitization helpers for
// safe filesystem use.
package textutil
