package screen

import "errors"

// Domain errors for the screen package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, screen.ErrOnlyOneRemaining) {
//	    // refuse the pop, keep the screen
//	}
var (
	// ErrOnlyOneRemaining is returned when popping a length-1 stack
	// without forcing. The stack is left unchanged.
	ErrOnlyOneRemaining = errors.New("screen: only one panel remaining")

	// ErrEmpty is returned by operations that need at least one panel
	// on an empty stack.
	ErrEmpty = errors.New("screen: stack is empty")
)
