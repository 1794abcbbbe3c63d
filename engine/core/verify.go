package core

import "fmt"

// Verify aborts with a ProgrammingError when cond does not hold.
func Verify(cond bool, msg string, args ...interface{}) {
	if cond {
		return
	}
	Unexpected(msg, args...)
}

// Unexpected logs msg and aborts with a ProgrammingError. Use it for states
// that can only be reached through a logic defect, never for bad user data.
func Unexpected(msg string, args ...interface{}) {
	text := fmt.Sprintf(msg, args...)
	LogError("%s", text)
	panic(&ProgrammingError{Message: text})
}
