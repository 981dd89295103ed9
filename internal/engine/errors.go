package engine

import "errors"

var (
	ErrNoSnapshot    = errors.New("engine: no data loaded yet")
	ErrEventNotFound = errors.New("engine: event not found")
	ErrQueueFull     = errors.New("engine: computation queue full")
	ErrTimeout       = errors.New("engine: computation timed out")
	ErrComputeFailed = errors.New("engine: computation failed")
)
