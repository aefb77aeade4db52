package docfetch

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors returned by the library. Use [errors.Is] to classify a
// failure returned from [Fetcher.Fetch].
var (
	// ErrInvalidInput is returned for a missing or malformed URL. No browser
	// is launched when this error is returned.
	ErrInvalidInput = errors.New("docfetch: invalid input")

	// ErrNavigation is returned when the target page did not load.
	ErrNavigation = errors.New("docfetch: navigation failed")

	// ErrTechniqueFailed marks a single extraction technique that produced
	// nothing. The chain swallows it and moves on.
	ErrTechniqueFailed = errors.New("docfetch: technique failed")

	// ErrUpstream marks a third-party mirror or conversion API that was
	// unreachable or answered with an unexpected shape. Swallowed like
	// ErrTechniqueFailed.
	ErrUpstream = errors.New("docfetch: upstream service failed")

	// ErrNoContent is returned when printing the page to PDF failed or
	// produced an empty file.
	ErrNoContent = errors.New("docfetch: no content produced")

	// ErrChainExhausted is returned when every technique, including the
	// print fallback, failed.
	ErrChainExhausted = errors.New("docfetch: all techniques failed")
)

// classify joins kind to cause so that errors.Is matches both, then wraps
// the pair with goerr to carry context values.
func classify(kind, cause error, msg string, opts ...goerr.Option) error {
	if cause == nil {
		return goerr.Wrap(kind, msg, opts...)
	}
	return goerr.Wrap(fmt.Errorf("%w: %w", kind, cause), msg, opts...)
}
