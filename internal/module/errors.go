package module

import "errors"

// Domain errors for the module package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, module.ErrComponentOwned) {
//	    // another module already claimed the component name
//	}
var (
	// ErrModuleExists is returned when registering a module whose name
	// is already taken.
	ErrModuleExists = errors.New("module: module already registered")

	// ErrComponentOwned is returned when a module declares a component
	// name that a previously registered module already owns.
	ErrComponentOwned = errors.New("module: component already owned")

	// ErrRendererExists is returned when registering a custom renderer
	// under a name that is already taken.
	ErrRendererExists = errors.New("module: renderer already registered")

	// ErrRendererNotFound is returned when a renderer component names a
	// custom renderer that was never registered.
	ErrRendererNotFound = errors.New("module: renderer not found")
)
