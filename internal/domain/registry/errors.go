package registry

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/galaxy/internal/shared/types"
)

// The two outcomes a caller can act on. Both leave registry state unchanged.
var (
	// ErrLayerAlreadyExists is returned by CreateLayer when the caller already owns the name
	ErrLayerAlreadyExists = errors.New("layer already exists")
	// ErrLayerNotFound is returned by ResolveLink when the user has no such layer
	ErrLayerNotFound = errors.New("layer not found")
)

// ConsistencyError reports that the layer list and link table disagree.
// It is never a normal lookup outcome and must not be treated as ErrLayerNotFound.
type ConsistencyError struct {
	User   types.UserID
	Name   string
	Reason string
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("registry inconsistency for %s/%q: %s", e.User, e.Name, e.Reason)
}

// IsConsistencyError reports whether err wraps a ConsistencyError
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
