// Package store holds the in-memory symbol catalog for a run. The catalog is
// the authoritative copy between checkpoints; persistence lives in
// storage/local.
package store
