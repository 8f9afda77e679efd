// ABOUTME: Error types returned by the chunking core
// ABOUTME: ProviderError aborts a chunking call; ErrInvalidConfig rejects bad settings eagerly
package core

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every configuration rejection
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// ProviderError reports an embedding failure for one sentence. It is fatal
// to the chunking call that triggered it.
type ProviderError struct {
	Index int
	Text  string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding sentence %d: %v", e.Index, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
