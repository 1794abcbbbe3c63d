package core

import (
	"errors"
)

var (
	ErrProgramming             = errors.New("programming error")
	ErrShaderNotFound          = errors.New("shader not found")
	ErrShaderLimitReached      = errors.New("maximum number of shaders reached")
	ErrInvalidShaderStage      = errors.New("invalid shader stage")
	ErrDuplicateShaderStage    = errors.New("duplicate shader stage")
	ErrDescriptorHeapExhausted = errors.New("descriptor heap exhausted")
	ErrUnknownResourceCategory = errors.New("unknown resource category")
	ErrInvalidVariableType     = errors.New("invalid shader variable type")
	ErrDuplicateResource       = errors.New("duplicate shader resource")
	ErrOverlappingBindPoints   = errors.New("overlapping shader resource bind points")
	ErrNoEntryPoint            = errors.New("shader has no entry point")
	ErrUnknownAsset            = errors.New("unknown asset")
	ErrUnknown                 = errors.New("unknown")
)

// ProgrammingError is raised through panic when an engine invariant is broken.
// It always unwraps to ErrProgramming.
type ProgrammingError struct {
	Message string
}

func (e *ProgrammingError) Error() string {
	return e.Message
}

func (e *ProgrammingError) Unwrap() error {
	return ErrProgramming
}
