package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when a source backend cannot be reached
	// or responds with a transport-level failure
	ErrSourceUnavailable = errors.New("source backend unavailable")

	// ErrEmptyResult is returned when a source responded but had no items
	ErrEmptyResult = errors.New("source returned no items")

	// ErrMalformedResponse is returned when a source payload cannot be parsed
	ErrMalformedResponse = errors.New("source returned malformed payload")

	// ErrQuotaExceeded is returned when a source's request budget is spent
	ErrQuotaExceeded = errors.New("source quota exceeded")

	// ErrInvalidQuery is returned when a query fails validation
	ErrInvalidQuery = errors.New("invalid query")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrChartRenderFailure is returned when the chart renderer rejects a request
	ErrChartRenderFailure = errors.New("chart render failed")
)

// ClassifyError maps a source error onto the audit taxonomy. Unknown errors
// count as transport failures since the pipeline treats them identically.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindNone
	case errors.Is(err, ErrEmptyResult):
		return ErrorKindEmptyResult
	case errors.Is(err, ErrMalformedResponse):
		return ErrorKindMalformedResponse
	case errors.Is(err, ErrQuotaExceeded):
		return ErrorKindQuotaExceeded
	default:
		return ErrorKindSourceUnavailable
	}
}
