package survey

import (
	"errors"
	"fmt"
)

// ErrInvalidKey is what participants get to see for any key problem.
var ErrInvalidKey = errors.New("invalid key")

var (
	ErrInvalidKeyFormat = fmt.Errorf("%w: access key failed sanitization", ErrInvalidKey)
	// ErrKeyNotFound covers withdrawn and unknown participants alike.
	ErrKeyNotFound = fmt.Errorf("%w: access key not in mapping", ErrInvalidKey)

	ErrMalformedScreenRequest = errors.New("screen parameter missing or not a number")
	ErrScreenUnavailable      = errors.New("videos for the next screen are not available")
	ErrInvalidSelection       = errors.New("selected video does not belong to the current screen")
	ErrIncompleteOutro        = errors.New("not every outro question was answered")
	ErrPoolExhausted          = errors.New("not enough unused videos left to allocate")
)
