package fields

import "github.com/google/uuid"

// IDGenerator hands out identity tokens for fields and repetitions. Tokens
// only need to be unique within one tree.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function into an IDGenerator.
type IDFunc func() string

// NewID calls the underlying function.
func (fn IDFunc) NewID() string {
	return fn()
}

// UUIDGenerator returns a generator producing random (v4) UUID strings.
func UUIDGenerator() IDGenerator {
	return IDFunc(uuid.NewString)
}
