package agentbay

import (
	"errors"

	"github.com/agentbay/agentbay-go/internal/wire"
)

// expectedFailure reports whether err is an API-level failure (a well-formed
// response carrying success=false). Those surface in result envelopes as
// "[code] message" instead of propagating as Go errors; transport failures
// do propagate.
func expectedFailure(err error) (string, bool) {
	var apiErr *wire.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error(), true
	}

	return "", false
}

// isNotFound reports whether err is the released-session / missing-resource
// condition, which callers log at info level.
func isNotFound(err error) bool {
	return errors.Is(err, wire.ErrNotFound)
}
