package imagebudget

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage         = errors.New("invalid image")
	ErrInvalidTarget        = errors.New("invalid target size")
	ErrCompressionExhausted = errors.New("compression exhausted")
)

// ExhaustedError is returned when even the last-resort pass stays over target.
type ExhaustedError struct {
	BestSize int
	Target   int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("compression exhausted: best size %d bytes exceeds target %d bytes", e.BestSize, e.Target)
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrCompressionExhausted
}
