package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a request is rejected before any upstream call
	ErrValidation = errors.New("invalid request")

	// ErrMissingMedia is returned when a media endpoint receives no file
	ErrMissingMedia = fmt.Errorf("%w: no media uploaded", ErrValidation)

	// ErrInvalidIntent is returned when process_type is outside the endpoint's closed set
	ErrInvalidIntent = fmt.Errorf("%w: invalid process type", ErrValidation)

	// ErrMissingIngredientName is returned when a lookup has no ingredient name
	ErrMissingIngredientName = fmt.Errorf("%w: no ingredient name provided", ErrValidation)

	// ErrInvalidIngredientsData is returned when ingredients_data is not a JSON object of counts
	ErrInvalidIngredientsData = fmt.Errorf("%w: invalid ingredients data format", ErrValidation)

	// ErrMediaTooLarge is returned when an uploaded file exceeds the configured limit
	ErrMediaTooLarge = fmt.Errorf("%w: uploaded file too large", ErrValidation)

	// ErrUnsupportedIntent is returned when an instruction is requested for an unknown intent
	ErrUnsupportedIntent = errors.New("unsupported processing intent")

	// ErrIncompleteInstructionContext is returned when an intent's required context is empty
	ErrIncompleteInstructionContext = errors.New("instruction context incomplete")

	// ErrUpstream is the parent of every inference gateway failure
	ErrUpstream = errors.New("inference gateway request failed")

	// ErrUpstreamUnavailable is returned on transport failures, timeouts and 5xx responses
	ErrUpstreamUnavailable = fmt.Errorf("%w: upstream unavailable", ErrUpstream)

	// ErrUpstreamRateLimited is returned when the gateway reports quota exhaustion
	ErrUpstreamRateLimited = fmt.Errorf("%w: upstream rate limited", ErrUpstream)

	// ErrUpstreamRejected is returned when the gateway rejects the request (4xx other than 429)
	ErrUpstreamRejected = fmt.Errorf("%w: upstream rejected request", ErrUpstream)

	// ErrUpstreamInvalidResponse is returned when the gateway response cannot be read
	ErrUpstreamInvalidResponse = fmt.Errorf("%w: upstream returned an invalid response", ErrUpstream)

	// ErrMalformedModelOutput is returned when model text does not match the requested JSON shape
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrStorageFailure is returned when media cannot be uploaded to object storage
	ErrStorageFailure = errors.New("object storage upload failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// ModelOutputError carries the raw model text that failed to parse
type ModelOutputError struct {
	Intent ProcessingIntent
	Raw    string
	Err    error
}

func (e *ModelOutputError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrMalformedModelOutput, e.Intent, e.Err)
}

func (e *ModelOutputError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformedModelOutput
func (e *ModelOutputError) Is(target error) bool {
	return target == ErrMalformedModelOutput
}
