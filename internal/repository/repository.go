package repository

import (
	"fmt"

	"go-auth-service/internal/model"
)

// wrapStoreErr tags infrastructure failures with model.ErrStoreUnavailable
// so the HTTP boundary can map them to a retryable 503 without exposing
// driver details. Row-absence cases are mapped to domain errors before this
// is reached.
func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
