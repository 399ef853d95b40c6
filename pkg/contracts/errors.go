package contracts

import "errors"

var (
	ErrInvalidBaseURL   = errors.New("contracts: invalid API base URL")
	ErrRequestFailed    = errors.New("contracts: request failed")
	ErrUnexpectedStatus = errors.New("contracts: unexpected response status")
	ErrInvalidResponse  = errors.New("contracts: failed to decode response")
)
