// Package recommend provides the boundary use cases the HTTP layer
// invokes: fetching ranked recommendations for a user and recording
// purchase batches.
package recommend

import "errors"

// Sentinel errors for recommendation use case operations.
var (
	// ErrEmptyUserID indicates that the caller supplied an empty user id.
	// The engine itself does not re-validate emptiness; this is checked
	// at the boundary.
	ErrEmptyUserID = errors.New("user_id is required")

	// ErrEmptyProducts indicates that a purchase batch contained no
	// product names.
	ErrEmptyProducts = errors.New("product_names is required")
)
