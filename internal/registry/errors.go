package registry

import "errors"

var (
	// ErrModelNotFound is returned when a model id is not registered
	ErrModelNotFound = errors.New("model not found")

	// ErrModelExists is returned when adding a model whose id is already registered
	ErrModelExists = errors.New("model already exists")

	// ErrInvalidModelID is returned for an empty model id
	ErrInvalidModelID = errors.New("model id is required")

	// ErrBuiltInModel is returned when a built-in model would be removed
	ErrBuiltInModel = errors.New("built-in models cannot be deleted")

	// ErrModelDisabled is returned when a disabled model is selected
	ErrModelDisabled = errors.New("model is disabled")
)
