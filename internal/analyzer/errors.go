package analyzer

import "errors"

var (
	// ErrEmptyIdentifier is returned when a relationship query gets a blank name.
	ErrEmptyIdentifier = errors.New("empty element identifier")
	// ErrNilContainer is returned when a graph build gets no container.
	ErrNilContainer = errors.New("nil entity container")
	// ErrElementNotFound is returned by lookups that need a declared element.
	ErrElementNotFound = errors.New("element not found")
)
