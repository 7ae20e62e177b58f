package gridastar

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a malformed grid or an endpoint outside it.
	ErrInvalidInput = errors.New("gridastar: invalid input")

	// ErrBlockedEndpoint reports a start or goal cell that is blocked.
	// It also matches ErrInvalidInput.
	ErrBlockedEndpoint = fmt.Errorf("%w: endpoint is blocked", ErrInvalidInput)

	// ErrNonPositiveCost is returned when a graph yields an edge cost <= 0.
	ErrNonPositiveCost = errors.New("gridastar: non-positive edge cost")

	// ErrExpansionLimit is returned when a search exceeds WithMaxExpansions.
	ErrExpansionLimit = errors.New("gridastar: expansion limit reached")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
