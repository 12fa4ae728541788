package library

import "errors"

// Sentinel errors for library operations.

// ErrNoSnapshot is returned by a Persister that has nothing stored yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// ErrNotFound indicates an id that matches no stored record.
var ErrNotFound = errors.New("record not found")

// ErrUnknownKind indicates a fragment kind outside the supported set.
var ErrUnknownKind = errors.New("unknown fragment kind")

// ErrEmptyName indicates a save without a name.
var ErrEmptyName = errors.New("name cannot be empty")

// ErrPersist wraps failures of the underlying Persister.
var ErrPersist = errors.New("failed to persist library")

// ErrLoad wraps failures reading the underlying Persister.
var ErrLoad = errors.New("failed to load library")
