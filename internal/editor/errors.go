package editor

import "errors"

// Sentinel errors for editor operations.

// ErrNothingToUndo indicates Undo was called with an empty history.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrInvalidValue indicates a value that does not fit the field's type or options.
var ErrInvalidValue = errors.New("invalid field value")

// ErrUnknownStrategy indicates an unrecognized merge strategy name.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// ErrNoSchema indicates an operation that needs a schema ran on an editor without one.
var ErrNoSchema = errors.New("editor has no schema attached")

// ErrNotRandomizable indicates a randomize request for a field without options.
var ErrNotRandomizable = errors.New("field cannot be randomized")
