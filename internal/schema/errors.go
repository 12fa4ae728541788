package schema

import "errors"

// Sentinel errors for schema loading and validation.

// ErrSchemaRead indicates the schema file exists but could not be read.
var ErrSchemaRead = errors.New("failed to read schema file")

// ErrSchemaParse indicates the schema file is not valid YAML.
var ErrSchemaParse = errors.New("failed to parse schema file")

// ErrSchemaInvalid indicates the schema parsed but violates a structural rule
// (duplicate key, unknown type, select without options, negative weight).
var ErrSchemaInvalid = errors.New("invalid schema")

// ErrUnknownField indicates a key that is not defined by the schema.
var ErrUnknownField = errors.New("unknown field")
