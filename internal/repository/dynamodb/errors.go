package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// MapError translates SDK failures. Validation errors are the caller's
// fault; everything else coming back from the service or the transport is
// treated as transient.
func MapError(err error) error {
	if err == nil || errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, repository.ErrInvalidQuery) {
		return err
	}
	if mapped := repository.MapContextError(err); mapped != err {
		return mapped
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return fmt.Errorf("%w: %w", repository.ErrInvalidQuery, err)
	}
	return repository.Unavailable(err)
}

func isResourceInUse(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceInUseException"
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException"
}
