// Package ident implements the hierarchical naming scheme used as the
// persistent key space for chunks across the chunky collections.
package ident

import "fmt"

// Ident is a hierarchical, string-valued name. Two Idents are equal iff
// their underlying strings are equal; Idents are plain values, not
// resources, and are safe to copy and share.
type Ident string

// New creates a root Ident from any value with a meaningful string
// representation (a plain string, an integer counter, a fmt.Stringer, ...).
func New(source any) Ident {
	return Ident(fmt.Sprint(source))
}

// Sub creates a sub-identifier within this Ident's group:
// parent.Sub(x) == "<parent>_<x>".
func (id Ident) Sub(suffix any) Ident {
	return Ident(fmt.Sprintf("%s_%v", string(id), suffix))
}

// String returns the identifier's string form, also used as its on-disk
// file name by file-backed storage.
func (id Ident) String() string {
	return string(id)
}
