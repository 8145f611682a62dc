package publisher

import "errors"

// Sentinel kinds for publisher errors.
var (
	ErrBufferFull = errors.New("event buffer full")
	ErrClosed     = errors.New("publisher closed")
)
