package graph

import "errors"

var (
	// ErrNotFound is returned when a lookup fails.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEdge is returned when an edge is missing part of its key.
	ErrInvalidEdge = errors.New("invalid edge")
)
