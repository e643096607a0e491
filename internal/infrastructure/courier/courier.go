package courier

import (
	"errors"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// isProviderRejection reports whether a call failed because the provider
// refused the request itself (4xx), as opposed to auth or availability
// trouble. Cancellation paths treat this as "already past a cancellable
// state".
func isProviderRejection(err error) bool {
	return errors.Is(err, integration.ErrProviderRequest)
}
