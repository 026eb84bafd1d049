package model

import "errors"

var (
	ErrNotFound         = errors.New("NOT_FOUND")
	ErrRateLimitReached = errors.New("RATE_LIMIT_REACHED")
	ErrRateLimiter      = errors.New("RATE_LIMITER_ERROR")
	ErrInvalidData      = errors.New("INVALID_DATA_FOUND")
	ErrFetch            = errors.New("FETCH_ERROR")
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrSyncInProgress   = errors.New("SYNC_IN_PROGRESS")
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const genericMessage = "internal server error. contact our support with the reason code for assistance"

func NewAPIError(errReason error) APIError {
	switch {
	case errors.Is(errReason, ErrRateLimitReached):
		return APIError{
			Code:    ErrRateLimitReached.Error(),
			Message: "github rate limit reached. consider using a token to increase the limit or wait few minutes and try again",
		}

	case errors.Is(errReason, ErrNotFound):
		return APIError{
			Code:    ErrNotFound.Error(),
			Message: "requested resource not found",
		}

	case errors.Is(errReason, ErrInvalidInput):
		return APIError{
			Code:    ErrInvalidInput.Error(),
			Message: errReason.Error(),
		}

	case errors.Is(errReason, ErrSyncInProgress):
		return APIError{
			Code:    ErrSyncInProgress.Error(),
			Message: "a synchronization is already running for this user",
		}

	case errors.Is(errReason, ErrRateLimiter),
		errors.Is(errReason, ErrInvalidData),
		errors.Is(errReason, ErrFetch):
		return APIError{
			Code:    rootCode(errReason),
			Message: genericMessage,
		}
	}

	return APIError{
		Code:    "GENERIC_ERROR",
		Message: genericMessage,
	}
}

func rootCode(err error) string {
	for _, known := range []error{ErrRateLimiter, ErrInvalidData, ErrFetch} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "GENERIC_ERROR"
}
