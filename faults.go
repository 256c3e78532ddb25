package salesagg

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrInjectedFault is returned by the fault-injecting batch processors.
var ErrInjectedFault = errors.New("injected fault")

// FailChunks returns a BatchProcessor that fails every attempt of the listed
// chunks (1-based sequence numbers), so they are always dropped. All other
// chunks succeed.
func FailChunks(seqs ...int) BatchProcessor {
	failing := slices.Clone(seqs)
	return BatchProcessorFunc(func(_ context.Context, b Batch) error {
		if slices.Contains(failing, b.Seq) {
			return fmt.Errorf("chunk %d attempt %d: %w", b.Seq, b.Attempt, ErrInjectedFault)
		}
		return nil
	})
}

// FailAttempts returns a BatchProcessor that fails the first n attempts of
// chunk seq and then succeeds. With n below the configured MaxRetries this
// models a transient fault that a retry recovers from.
func FailAttempts(seq, n int) BatchProcessor {
	return BatchProcessorFunc(func(_ context.Context, b Batch) error {
		if b.Seq == seq && b.Attempt <= n {
			return fmt.Errorf("chunk %d attempt %d: %w", b.Seq, b.Attempt, ErrInjectedFault)
		}
		return nil
	})
}
