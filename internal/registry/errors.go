package registry

import "errors"

// Errors returned by Add. Callers match them with errors.Is; the returned
// error may wrap the underlying provider failure.
var (
	ErrEmptyInput          = errors.New("symbol is empty")
	ErrAlreadyTracked      = errors.New("symbol already tracked")
	ErrCapacityExceeded    = errors.New("tracking capacity reached")
	ErrUnknownSymbol       = errors.New("unknown symbol")
	ErrTimeout             = errors.New("lookup timed out")
	ErrCancelled           = errors.New("lookup cancelled")
	ErrProviderUnavailable = errors.New("quote provider unavailable")
)

// ResultLabel returns the metrics label for an Add outcome
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrAlreadyTracked):
		return "already_tracked"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return "provider_unavailable"
	}
}
