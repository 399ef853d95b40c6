package renewal

import "errors"

var (
	ErrAlreadyOpen     = errors.New("renewal: panel is already open")
	ErrNotOpen         = errors.New("renewal: panel is not open")
	ErrClosedMidFlight = errors.New("renewal: panel was closed while the operation was in flight")
	ErrSubmitInFlight  = errors.New("renewal: a submission is already in flight")
	ErrUnknownBundle   = errors.New("renewal: unknown billing subscription id")
)
