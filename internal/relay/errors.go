package relay

import (
	"fmt"
	"net/http"
)

// MaxResponseBody caps how much of a provider response is read.
const MaxResponseBody = 10 * 1024 * 1024

// MapHTTPError maps a non-200 provider response to an error wrapping one of
// the package sentinels, so callers can classify failures with errors.Is.
func MapHTTPError(statusCode int, detail string) error {
	msg := fmt.Sprintf("API error (HTTP %d): %s", statusCode, detail)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	case statusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUpstream, msg)
	default:
		return fmt.Errorf("%s", msg)
	}
}
