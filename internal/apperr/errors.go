// Package apperr holds the sentinel errors shared across zk packages.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidID       = errors.New("invalid zettel id")
	ErrInvalidMetadata = errors.New("invalid zettel metadata")
)
