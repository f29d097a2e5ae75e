package vector

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups for a vector id that is not present
// in the ledger. Delete and Update translate it into a false return.
var ErrNotFound = errors.New("vector: id not found")

// ConfigError indicates an invalid store or index configuration, such as
// a dimension mismatch between the embedding model and the index. It is
// fatal at construction time, never at query time.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "vector: configuration error: " + e.Reason
}

// EmbeddingError wraps a failure of the embedding model for a given text.
// Batch callers catch it per item, log it, and continue.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("vector: embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a disk I/O or (de)serialization failure. The
// operation that hit it is aborted; the previously persisted pair on disk
// remains authoritative.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("vector: persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
