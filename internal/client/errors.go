package client

import "errors"

var (
	// ErrServer indicates the planning server answered with an ERROR envelope
	// or a non-2xx status. The server's message is wrapped alongside.
	ErrServer = errors.New("planning server error")

	// ErrUnavailable indicates the planning server could not be reached.
	ErrUnavailable = errors.New("planning server unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("planning server request timed out")

	// ErrMalformedResponse indicates a response body that is not a valid
	// envelope or whose payload does not decode.
	ErrMalformedResponse = errors.New("malformed server response")
)
